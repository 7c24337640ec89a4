package server

import (
	"context"
	"testing"

	"github.com/maildepot/maildepot/internal/server/config"
	"github.com/stretchr/testify/require"
)

func TestNewApp_UnreachableDatabase(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	// Nothing listens on port 1, so the migration step fails on connect.
	cfg.DatabaseDSN = "postgres://u:p@127.0.0.1:1/maildepot?sslmode=disable&connect_timeout=1"
	cfg.StorageRoot = t.TempDir()

	app, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, app)
	require.ErrorContains(t, err, "migration error")
}
