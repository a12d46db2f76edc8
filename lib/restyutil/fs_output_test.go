package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), []byte("old"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "stale"))
	require.True(t, os.IsNotExist(err))

	output.Write("request/1", "POST /v1beta/properties/1:runReport")
	contents, err := os.ReadFile(filepath.Join(output.Directory(), "request_1"))
	require.NoError(t, err)
	require.Equal(t, "POST /v1beta/properties/1:runReport", string(contents))
}
