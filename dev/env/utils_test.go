package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	plain, err := ResolvePath("out/analytics_data.csv")
	require.NoError(t, err)
	require.Equal(t, "out/analytics_data.csv", plain)

	root, err := GetWorkspaceRoot()
	require.NoError(t, err)

	resolved, err := ResolvePath("<dev_state>/analytics.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "dev", ".state", "analytics.db"), resolved)
}
