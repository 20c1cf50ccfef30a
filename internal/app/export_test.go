package app

import (
	"context"

	"github.com/MrWong99/homonym/internal/termstore"
)

// WithPostgresOpener replaces the PostgreSQL store factory.
func WithPostgresOpener(f func(ctx context.Context, dsn string) (termstore.Store, func(), error)) Option {
	return func(a *App) { a.openPostgres = f }
}
