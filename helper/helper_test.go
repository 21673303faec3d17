package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandArgFiles(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "inner.args")
	outer := filepath.Join(dir, "outer.args")
	require.NoError(t, os.WriteFile(inner, []byte("--ddns-token\nsecret value\n"), 0o600))
	require.NoError(t, os.WriteFile(outer, []byte("--verbose\r\n@"+inner+"\n"), 0o600))

	args, err := ExpandArgFiles([]string{"-f", "@" + outer, "home.example.com", "@"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-f", "--verbose", "--ddns-token", "secret value", "home.example.com", "@"}, args)
}

func TestExpandArgFilesErrors(t *testing.T) {
	_, err := ExpandArgFiles([]string{"@/nonexistent/args"})
	assert.Error(t, err)

	loop := filepath.Join(t.TempDir(), "loop.args")
	require.NoError(t, os.WriteFile(loop, []byte("@"+loop+"\n"), 0o600))
	_, err = ExpandArgFiles([]string{"@" + loop})
	assert.ErrorContains(t, err, "includes itself")
}
