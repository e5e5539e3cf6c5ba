package party

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/entity"
)

// ErrNotFound is returned when a party is missing.
var ErrNotFound = errors.New("party not found")

// Repository looks up registered manufacturers and wholesalers.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetByID fetches a party by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Party, error) {
	p := new(entity.Party)
	err := r.reader.NewSelect().Model(p).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
