package database

import (
	"context"
	"database/sql"

	"github.com/joacominatel/devintest/internal/config"
)

// Provider opens database sessions.
//
// Every call to Open returns a fresh *sql.DB restricted to a single underlying
// connection. The caller owns it and must Close it exactly once. On error no
// resources are left open.
type Provider interface {
	Open(ctx context.Context, desc config.Descriptor) (*sql.DB, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, desc config.Descriptor) (*sql.DB, error)

// Open calls f.
func (f ProviderFunc) Open(ctx context.Context, desc config.Descriptor) (*sql.DB, error) {
	return f(ctx, desc)
}
