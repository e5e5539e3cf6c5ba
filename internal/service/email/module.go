package email

import "go.uber.org/fx"

// Module provides the email dispatcher to Fx.
var Module = fx.Provide(NewDispatcher)
