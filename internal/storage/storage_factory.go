package storage

import "fmt"

type StorageType string

const (
	CSVStorageType     StorageType = "csv"
	MemoryStorageType  StorageType = "memory"
	ParquetStorageType StorageType = "parquet"
)

type StorageConfig struct {
	Type StorageType
	Dir  string // table directory for CSV, snapshot directory for Parquet
}

// NewStorage creates a new storage instance based on the provided configuration
func NewStorage(config StorageConfig) (Storage, error) {
	switch config.Type {
	case CSVStorageType, "":
		if config.Dir == "" {
			return nil, fmt.Errorf("directory is required for CSV storage")
		}
		return NewCSVStorage(config.Dir)
	case MemoryStorageType:
		return NewMemoryStorage(), nil
	case ParquetStorageType:
		if config.Dir == "" {
			return nil, fmt.Errorf("directory is required for Parquet storage")
		}
		return NewParquetStorage(config.Dir)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
