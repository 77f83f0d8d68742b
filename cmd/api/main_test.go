package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage/filestore"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
)

func TestStorageBackendFileLogsDir(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: "json"})
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendFile, Dir: dir}}

	backend, err := storageBackend(context.Background(), cfg, nil, logg)
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, backend)
	require.Contains(t, buf.String(), `"backend":"file"`)
	require.Contains(t, buf.String(), dir)
}

func TestStorageBackendDefaultsToMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendMemory}}

	backend, err := storageBackend(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	require.IsType(t, &memory.Handle{}, backend)
}

func TestStorageBackendRedisNeedsClient(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageBackendRedis}}

	_, err := storageBackend(context.Background(), cfg, nil, logger.Nop())
	require.Error(t, err)
}
