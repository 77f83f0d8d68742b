package inventory

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, name string, seed map[string]int) (Service, *Repository) {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverSQLite, DSN: "file:" + name + "?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, config.DBDriverSQLite, "../../pkg/migrate/migrations", "up"))

	repo := NewRepository(client.DB())
	require.NoError(t, repo.SetCounts(ctx, seed))
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "inv_counts", map[string]int{"A": 3, "B": 0})

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 3, "B": 0}, counts)

	one, err := svc.Count(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, Count{SKU: "A", Qty: 3}, one)

	unknown, err := svc.Count(ctx, "ZZZ")
	require.NoError(t, err)
	require.Equal(t, 0, unknown.Qty)
}

func TestDecrementAppliesAll(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, "inv_dec_ok", map[string]int{"A": 3, "B": 5})

	updated, err := svc.Apply(ctx, "Decrement", []Line{
		{SKU: "A", Qty: 1},
		{SKU: "B", Qty: 2.9},
		{SKU: "A", Qty: 1},
		{SKU: "", Qty: 4},
		{SKU: "C", Qty: 0},
	}, false)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 1, "B": 3, "C": 0}, updated)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 1, "B": 3}, counts)
}

func TestDecrementIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, "inv_dec_short", map[string]int{"A": 3, "B": 1})

	_, err := svc.Apply(ctx, OpDecrement, []Line{
		{SKU: "A", Qty: 2},
		{SKU: "B", Qty: 2},
		{SKU: "C", Qty: 1},
	}, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, []Shortage{{SKU: "B", Have: 1, Need: 2}, {SKU: "C", Have: 0, Need: 1}}, details["missing"])

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 3, "B": 1}, counts, "nothing may change on shortage")
}

func TestSetRequiresAdminAndClamps(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "inv_set", map[string]int{"A": 3})

	_, err := svc.Apply(ctx, OpSet, []Line{{SKU: "A", Qty: 10}}, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)

	all, err := svc.Apply(ctx, OpSet, []Line{{SKU: "A", Qty: -4}, {SKU: "B", Qty: 7}, {SKU: " "}}, true)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 0, "B": 7}, all)
}

func TestApplyRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, "inv_bad", nil)

	_, err := svc.Apply(ctx, "", []Line{{SKU: "A", Qty: 1}}, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Apply(ctx, OpDecrement, nil, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Apply(ctx, "restock", []Line{{SKU: "A", Qty: 1}}, true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
