package ports

import (
	"io"
	"os"
	"path/filepath"
)

// LocalFS is the reference BlobStore backing the local-filesystem URI
// scheme (spec §6's default destination scheme). Grounded on the teacher's
// own os/filepath handling in internal/worker/executor.go
// (createPartitionWriters, generateMeta): os.MkdirAll before create,
// os.Open/os.Create directly, no third-party filesystem abstraction — no
// library in the retrieval pack wraps local file I/O, so stdlib is used
// unmodified here too.
type LocalFS struct{}

func (LocalFS) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (LocalFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (LocalFS) List(prefix string, glob string, maxFiles int) ([]string, error) {
	pattern := prefix
	if glob != "" {
		pattern = filepath.Join(prefix, glob)
	} else {
		pattern = filepath.Join(prefix, "*")
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if maxFiles > 0 && len(matches) > maxFiles {
		matches = matches[:maxFiles]
	}
	return matches, nil
}

func (LocalFS) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	// spec §9 flags a bug where PartitionBy.spillToDisk stored the whole
	// stat object instead of .size; this accessor exists precisely so
	// every call site stores info.Size(), never the stat struct itself.
	return info.Size(), nil
}

func (LocalFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}
