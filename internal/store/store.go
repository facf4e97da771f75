package store

import (
	"fmt"

	"namerecon-service/internal/reconcile/service"
)

// Store — связки + справочник; реализуют Memory и SQLite.
type Store interface {
	service.MappingStore
	service.Catalog
	Close() error
}

// Open выбирает реализацию по типу: "memory" или "sqlite".
func Open(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", kind)
	}
}
