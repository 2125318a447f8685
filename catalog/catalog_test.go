package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadNetFlowV9Default(t *testing.T) {
	cat, err := LoadNetFlowV9("")
	require.NoError(t, err)

	d, ok := cat.LookupNetFlowV9(1)
	require.True(t, ok)
	require.Equal(t, "IN_BYTES", d.Name)
	require.Equal(t, KindUint, d.Kind)

	d, ok = cat.LookupNetFlowV9(8)
	require.True(t, ok)
	require.Equal(t, KindIPv4, d.Kind)

	_, ok = cat.LookupNetFlowV9(65000)
	require.False(t, ok)
}

func TestLoadIPFIXDefault(t *testing.T) {
	cat, err := LoadIPFIX("")
	require.NoError(t, err)

	d, ok := cat.LookupIPFIX(0, 152)
	require.True(t, ok)
	require.Equal(t, "flowStartMilliseconds", d.Name)
}

func TestLoadNetFlowV9Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte("1: [uint, CUSTOM_BYTES]\n9999: [skip]\n"), 0o644))

	cat, err := LoadNetFlowV9(path)
	require.NoError(t, err)

	d, ok := cat.LookupNetFlowV9(1)
	require.True(t, ok)
	require.Equal(t, "CUSTOM_BYTES", d.Name)

	// fields not touched by the override are preserved from the default
	d, ok = cat.LookupNetFlowV9(2)
	require.True(t, ok)
	require.Equal(t, "IN_PKTS", d.Name)

	d, ok = cat.LookupNetFlowV9(9999)
	require.True(t, ok)
	require.Equal(t, KindSkip, d.Kind)
}

func TestLoadNetFlowV9MissingOverride(t *testing.T) {
	_, err := LoadNetFlowV9("/does/not/exist.yaml")
	require.Error(t, err)
	var missing *ErrCatalogMissing
	require.ErrorAs(t, err, &missing)
}

func TestLoadNetFlowV9SyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("1: [bogus, NAME]\n"), 0o644))

	_, err := LoadNetFlowV9(path)
	require.Error(t, err)
	var syntax *ErrCatalogSyntax
	require.ErrorAs(t, err, &syntax)
}

func TestLegacyWidthForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("100: [4, LEGACY_FIELD]\n"), 0o644))

	cat, err := LoadNetFlowV9(path)
	require.NoError(t, err)

	d, ok := cat.LookupNetFlowV9(100)
	require.True(t, ok)
	require.Equal(t, KindUint, d.Kind)
	require.Equal(t, 4, d.DefaultWidth)
}
