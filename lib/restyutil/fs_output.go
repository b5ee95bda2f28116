package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Output receives the rendered text of one HTTP exchange.
type Output interface {
	Write(id string, contents string)
}

// FilesystemOutput writes each exchange to <directory>/<id>.txt.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears dir and recreates it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange file", "id", id, "err", err)
	}
}
