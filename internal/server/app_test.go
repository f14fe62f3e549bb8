package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/vaults"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewApp_Memory(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = config.MemoryDSN

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.InMemoryRepositoryManager{}, app.repomanager)
	assert.NotNil(t, app.server)
}

func TestNewApp_PostgresOpenError(t *testing.T) {
	old := openPostgres
	t.Cleanup(func() { openPostgres = old })
	openPostgres = func(context.Context, string) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	}

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewApp_S3ClientError(t *testing.T) {
	oldS3, oldPg := newS3Client, openPostgres
	t.Cleanup(func() { newS3Client, openPostgres = oldS3, oldPg })

	var got vaults.S3Options
	newS3Client = func(_ context.Context, o vaults.S3Options) (vaults.ObjectAPI, error) {
		got = o
		return nil, errors.New("no credentials")
	}
	openPostgres = func(context.Context, string) (*sql.DB, error) {
		t.Fatal("postgres must not be opened when the vault store fails")
		return nil, nil
	}

	c := testConfig()
	c.VaultBackend = config.VaultBackendS3
	c.S3RootUser = "minio"
	c.S3RootPassword = "minio123"
	c.S3BaseEndpoint = "http://localhost:9000"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, vaults.S3Options{
		Region:       "us-east-1",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		BaseEndpoint: "http://localhost:9000",
	}, got)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = config.MemoryDSN

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
}
