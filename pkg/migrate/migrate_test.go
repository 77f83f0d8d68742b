package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/stretchr/testify/require"
)

const testDir = "migrations"

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir(testDir))
}

func TestMigrationsContainConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_products.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (price >= 0)",
			"DROP TABLE IF EXISTS products",
		},
		"*_create_inventory_counts.sql": {
			"CREATE TABLE IF NOT EXISTS inventory_counts",
			"CHECK (qty >= 0)",
			"DROP TABLE IF EXISTS inventory_counts",
		},
	}
	for pattern, wants := range checks {
		matches, err := filepath.Glob(filepath.Join(testDir, pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)
		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		for _, want := range wants {
			require.Contains(t, string(data), want)
		}
	}
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file:migrate_up_down?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	defer client.Close()

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)

	require.NoError(t, Run(ctx, sqlDB, config.DBDriverSQLite, testDir, "up"))
	_, err = sqlDB.ExecContext(ctx, `INSERT INTO inventory_counts (sku, qty) VALUES ('A', 3)`)
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `INSERT INTO inventory_counts (sku, qty) VALUES ('B', -1)`)
	require.Error(t, err, "qty check constraint should reject negatives")

	require.NoError(t, MigrateToVersion(ctx, sqlDB, config.DBDriverSQLite, testDir, "20260301120000"))
	_, err = sqlDB.ExecContext(ctx, `SELECT COUNT(*) FROM inventory_counts`)
	require.Error(t, err, "inventory table should be gone after migrating down")
}

func TestDialect(t *testing.T) {
	got, err := Dialect(config.DBDriverSQLite)
	require.NoError(t, err)
	require.Equal(t, "sqlite3", got)
	_, err = Dialect("oracle")
	require.Error(t, err)
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), nil))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Favorites Index!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_favorites_index.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}
