package invoice

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
	"github.com/Additional-Code/medichain/internal/entity"
	repo "github.com/Additional-Code/medichain/internal/repository/invoice"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

type fakeInvoiceStore struct {
	byOrder map[string]*entity.Invoice
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{byOrder: make(map[string]*entity.Invoice)}
}

func (s *fakeInvoiceStore) Create(_ context.Context, inv *entity.Invoice) error {
	cp := *inv
	s.byOrder[inv.OrderID] = &cp
	return nil
}

func (s *fakeInvoiceStore) GetByOrderID(_ context.Context, orderID string) (*entity.Invoice, error) {
	inv, ok := s.byOrder[orderID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *fakeInvoiceStore) ListByManufacturer(_ context.Context, manufacturerID int64) ([]entity.Invoice, error) {
	var out []entity.Invoice
	for _, inv := range s.byOrder {
		if inv.ManufacturerID == manufacturerID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type fakeParties struct{}

func (fakeParties) GetByID(_ context.Context, id int64) (*entity.Party, error) {
	return &entity.Party{ID: id, CompanyName: "Test Pharma"}, nil
}

func testOrder() *entity.Order {
	return &entity.Order{
		OrderID:        "ORD-1",
		ManufacturerID: 1,
		WholesalerID:   2,
		ProductID:      3,
		Quantity:       10,
		UnitPrice:      100,
		TotalAmount:    1180,
		GSTPercentage:  18,
		GSTAmount:      180,
	}
}

func newTestService(t *testing.T) (*Service, *fakeInvoiceStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := newFakeInvoiceStore()
	cfg := config.Invoice{Dir: dir, DownloadBaseURL: "/api/invoices/download"}
	return NewService(store, fakeParties{}, cfg, zap.NewNop()), store, dir
}

func TestGenerateWritesArtifactAndRecord(t *testing.T) {
	svc, store, dir := newTestService(t)

	inv, err := svc.Generate(context.Background(), testOrder())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^INV-\d+-\d+$`), inv.InvoiceNumber)
	assert.Equal(t, inv.InvoiceNumber+".pdf", inv.FileName)
	assert.Equal(t, "/api/invoices/download/"+inv.FileName, inv.DownloadURL)

	info, err := os.Stat(filepath.Join(dir, inv.FileName))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	stored, ok := store.byOrder["ORD-1"]
	require.True(t, ok)
	assert.Equal(t, inv.InvoiceNumber, stored.InvoiceNumber)
}

func TestGenerateIsIdempotentPerOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, testOrder())
	require.NoError(t, err)

	second, err := svc.Generate(ctx, testOrder())
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
}

func TestResolveFileRejectsTraversal(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, name := range []string{"", "..", "../secret.pdf", "a/b.pdf", `a\b.pdf`} {
		_, err := svc.ResolveFile(name)
		require.Error(t, err, "name %q", name)
		var appErr *errorbank.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errorbank.KindBadRequest, appErr.Kind(), "name %q", name)
	}
}

func TestResolveFileMissing(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ResolveFile("INV-1-1.pdf")

	require.Error(t, err)
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
}

func TestResolveFileExisting(t *testing.T) {
	svc, _, _ := newTestService(t)

	inv, err := svc.Generate(context.Background(), testOrder())
	require.NoError(t, err)

	path, err := svc.ResolveFile(inv.FileName)
	require.NoError(t, err)
	assert.Equal(t, inv.FileName, filepath.Base(path))
}
