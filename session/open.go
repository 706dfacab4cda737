package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Open builds a store from a spec string:
//
//	"" or "file"            session.json inside dir
//	"file:/some/path.json"  explicit file
//	"memory"                process memory
//	"redis://host:6379/0"   redis (rediss:// for TLS)
func Open(ctx context.Context, spec, dir string) (Store, error) {
	spec = strings.TrimSpace(spec)

	switch {
	case spec == "" || spec == "file":
		return NewFileStore(filepath.Join(dir, FileName)), nil
	case strings.HasPrefix(spec, "file:"):
		return NewFileStore(strings.TrimPrefix(spec, "file:")), nil
	case spec == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		return OpenRedis(ctx, spec)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, spec)
}
