package wallet_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3fund/internal/wallet"
)

func TestGrantsLifecycle(t *testing.T) {
	g := wallet.NewGrants(filepath.Join(t.TempDir(), "grants.json"))

	assert.False(t, g.Granted(hardhatAddr))
	require.NoError(t, g.Grant(hardhatAddr))
	assert.True(t, g.Granted(hardhatAddr))
	assert.True(t, g.Granted("0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266"), "lookups ignore case")

	require.NoError(t, g.Revoke(hardhatAddr))
	assert.False(t, g.Granted(hardhatAddr))
	assert.NoError(t, g.Revoke(hardhatAddr), "revoking twice is fine")
}

func TestGrantsFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), "sub", "grants.json")
	require.NoError(t, wallet.NewGrants(path).Grant(hardhatAddr))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGrantsCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	g := wallet.NewGrants(path)
	assert.False(t, g.Granted(hardhatAddr))
	require.NoError(t, g.Grant(hardhatAddr))
	assert.True(t, g.Granted(hardhatAddr))
}

func TestGrantsClear(t *testing.T) {
	g := wallet.NewGrants(filepath.Join(t.TempDir(), "grants.json"))
	require.NoError(t, g.Clear(), "clearing a missing file is fine")
	require.NoError(t, g.Grant(hardhatAddr))
	require.NoError(t, g.Clear())
	assert.False(t, g.Granted(hardhatAddr))
}

func TestHintFile(t *testing.T) {
	h := wallet.NewHintFile(filepath.Join(t.TempDir(), "last_account"))
	assert.Empty(t, h.Load())

	require.NoError(t, h.Save(hardhatAddr))
	assert.Equal(t, hardhatAddr, h.Load())

	require.NoError(t, h.Clear())
	assert.Empty(t, h.Load())
	assert.NoError(t, h.Clear())
}
