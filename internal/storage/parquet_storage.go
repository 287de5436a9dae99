package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zakazai/csvdb/internal/types"
)

const snapshotExt = ".parquet"

// ParquetRow is one table line in a snapshot file. Ordinal 0 holds the header,
// records follow in table order.
type ParquetRow struct {
	TableName  string `parquet:"name=table_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ordinal    int64  `parquet:"name=ordinal, type=INT64"`
	FieldsJSON string `parquet:"name=fields_json, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetStorage keeps read-only Parquet snapshots of tables from another
// storage. SELECT runs against snapshots; mutations must go to the source.
type ParquetStorage struct {
	baseDir      string
	mu           sync.RWMutex
	source       Storage
	syncWorker   *time.Ticker
	syncInterval time.Duration
	stopSync     chan struct{}
	lastSync     time.Time
}

// NewParquetStorage creates a Parquet snapshot storage in dataDir
func NewParquetStorage(dataDir string) (*ParquetStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &ParquetStorage{
		baseDir:      dataDir,
		syncInterval: 5 * time.Minute,
	}, nil
}

// SetSource sets the storage that snapshots are taken from
func (s *ParquetStorage) SetSource(source Storage) {
	s.source = source
}

// SetSyncInterval sets the interval for automatic syncing
func (s *ParquetStorage) SetSyncInterval(interval time.Duration) {
	s.syncInterval = interval
	if s.syncWorker != nil {
		s.syncWorker.Reset(interval)
	}
}

// StartSyncWorker starts a background worker that periodically snapshots the source
func (s *ParquetStorage) StartSyncWorker() {
	if s.syncInterval == 0 {
		s.syncInterval = 5 * time.Minute
	}

	stop := make(chan struct{})
	ticker := time.NewTicker(s.syncInterval)
	s.stopSync = stop
	s.syncWorker = ticker

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.Sync(); err != nil {
					types.GlobalLogger.Warning("parquet sync failed: %v", err)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopSyncWorker stops the background sync worker
func (s *ParquetStorage) StopSyncWorker() {
	if s.stopSync != nil {
		close(s.stopSync)
		s.stopSync = nil
	}
	if s.syncWorker != nil {
		s.syncWorker.Stop()
	}
}

// Sync snapshots every table of the source storage. A table that fails is
// logged and skipped; the first such error is returned after the rest are done.
func (s *ParquetStorage) Sync() error {
	if s.source == nil {
		return fmt.Errorf("no source storage configured")
	}

	tables, err := s.source.ShowTables()
	if err != nil {
		return fmt.Errorf("failed to list source tables: %w", err)
	}

	var firstErr error
	for _, name := range tables {
		if err := s.Snapshot(name); err != nil {
			types.GlobalLogger.Warning("failed to snapshot table %s: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.mu.Lock()
	s.lastSync = time.Now()
	s.mu.Unlock()
	return firstErr
}

// Snapshot reads a table from the source storage and writes it to <table>.parquet
func (s *ParquetStorage) Snapshot(name string) error {
	if s.source == nil {
		return fmt.Errorf("no source storage configured")
	}
	if err := checkTableName(name); err != nil {
		return err
	}

	table, err := s.source.Open(name)
	if err != nil {
		return err
	}
	defer table.Close()

	records := [][]string{table.Header}
	for table.Next() {
		records = append(records, table.Record())
	}
	if err := table.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeParquetFile(name, records); err != nil {
		return err
	}
	types.GlobalLogger.Debug("snapshot of %s written with %d rows", name, len(records)-1)
	return nil
}

// writeParquetFile writes header and records to a temporary file and renames
// it over the snapshot, so readers never see a partial file.
func (s *ParquetStorage) writeParquetFile(name string, records [][]string) error {
	tmp, err := os.CreateTemp(s.baseDir, "."+name+snapshotExt+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := writeParquetRows(tmpName, name, records); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.snapshotPath(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot of %s: %w", name, err)
	}
	return nil
}

func writeParquetRows(path, name string, records [][]string) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), 4)
	if err != nil {
		return err
	}

	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, record := range records {
		jsonData, err := json.Marshal(record)
		if err != nil {
			return err
		}

		row := &ParquetRow{
			TableName:  name,
			Ordinal:    int64(i),
			FieldsJSON: string(jsonData),
		}
		if err := pw.Write(row); err != nil {
			return err
		}
	}

	// Flush and close writer
	return pw.WriteStop()
}

func (s *ParquetStorage) snapshotPath(name string) string {
	return filepath.Join(s.baseDir, name+snapshotExt)
}

// Open reads a table back from its snapshot
func (s *ParquetStorage) Open(name string) (*Table, error) {
	if err := checkTableName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.snapshotPath(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.TableError("no snapshot of table %s", name)
		}
		return nil, err
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot of %s: %w", name, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot of %s: %w", name, err)
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	if numRows == 0 {
		return nil, types.TableError("table %s is empty", name)
	}
	parquetRows := make([]ParquetRow, numRows)
	if err := pr.Read(&parquetRows); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows of %s: %w", name, err)
	}
	sort.SliceStable(parquetRows, func(i, j int) bool {
		return parquetRows[i].Ordinal < parquetRows[j].Ordinal
	})

	records := make([][]string, 0, numRows)
	for _, prow := range parquetRows {
		if prow.TableName != name {
			continue
		}
		var record []string
		if err := json.Unmarshal([]byte(prow.FieldsJSON), &record); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot row %d of %s: %w", prow.Ordinal, name, err)
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, types.TableError("table %s is empty", name)
	}

	return newTable(name, records[0], &sliceSource{records: records[1:]}), nil
}

// Append is rejected: snapshots are read-only
func (s *ParquetStorage) Append(name string, records [][]string) error {
	return fmt.Errorf("parquet storage is read-only; insert into the source table instead")
}

// Replace is rejected: snapshots are read-only
func (s *ParquetStorage) Replace(name string, header []string) (Replacement, error) {
	return nil, fmt.Errorf("parquet storage is read-only; modify the source table instead")
}

// ShowTables lists the tables that have a snapshot
func (s *ParquetStorage) ShowTables() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var tables []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		tables = append(tables, strings.TrimSuffix(name, snapshotExt))
	}
	sort.Strings(tables)
	return tables, nil
}

// Close stops the sync worker
func (s *ParquetStorage) Close() error {
	s.StopSyncWorker()
	return nil
}

// GetLastSyncTime returns the time of the last sync
func (s *ParquetStorage) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}
