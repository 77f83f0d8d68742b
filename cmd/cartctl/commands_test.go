package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShowEmptyCart(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "show")
	require.NoError(t, err)
	require.Contains(t, out, cartdto.EmptyCartMessage)
}

func TestAddSetRemoveClearPersistAcrossProcesses(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "add", "MUG", "--name", "Mug", "--price", "12.5", "--qty", "2")
	require.NoError(t, err)
	require.Contains(t, out, "items: 2")
	require.Contains(t, out, "$25.00")

	_, err = runCLI(t, dir, "add", "MUG", "--name", "Mug", "--price", "12.5", "--branch", "north")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "show")
	require.NoError(t, err)
	require.Contains(t, out, "MUG:north")
	require.Contains(t, out, "items: 3")

	out, err = runCLI(t, dir, "set", "MUG", "5")
	require.NoError(t, err)
	require.Contains(t, out, "items: 6")

	out, err = runCLI(t, dir, "set", "MUG", "0")
	require.NoError(t, err)
	require.NotContains(t, strings.ReplaceAll(out, "MUG:north", ""), "MUG")

	out, err = runCLI(t, dir, "rm", "MUG:north")
	require.NoError(t, err)
	require.Contains(t, out, cartdto.EmptyCartMessage)

	_, err = runCLI(t, dir, "add", "TEE", "--price", "9")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "clear")
	require.NoError(t, err)
	require.Contains(t, out, cartdto.EmptyCartMessage)
}

func TestShoppersAreIsolated(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "--shopper", "a", "add", "MUG", "--price", "1")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "--shopper", "b", "show")
	require.NoError(t, err)
	require.Contains(t, out, cartdto.EmptyCartMessage)
}

func TestSetRejectsBadQuantity(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "set", "MUG", "lots")
	require.Error(t, err)
}
