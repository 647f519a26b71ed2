package storage

import (
	"fmt"
	"wayfarer/internal/providers"
	"wayfarer/internal/storage/interfaces"
	"wayfarer/internal/structures"
)

// NewDocumentStoreProvider selects the persistence driver from config.
func NewDocumentStoreProvider(conf *structures.Config, logger providers.Logger, compressor interfaces.CompressorInterface) (interfaces.DocumentStoreInterface, error) {
	switch conf.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		if conf.Storage.Dir == "" {
			return nil, fmt.Errorf("file storage requires storage.dir")
		}
		return NewFileStore(conf.Storage.Dir, compressor, logger)
	case "sqlite":
		return NewSqliteStore(conf.Storage.SqlitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
