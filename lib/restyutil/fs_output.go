package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	devenv "analytics-export/dev/env"
)

// FilesystemOutput writes each instrumented HTTP exchange to its own file.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput empties (or creates) dir, it accepts <dev_state> paths.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("clear http dump dir: %w", err)
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create http dump dir: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(id)
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
