package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/logging"
)

var csvHeader = []string{"timestamp", "temp", "hum", "lux"}

// FileStore appends readings to one CSV file per device:
// <dir>/<device_id>.csv with header timestamp,temp,hum,lux
type FileStore struct {
	dir    string
	mu     sync.Mutex
	locks  map[string]*sync.RWMutex
	logger *logging.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		locks:  make(map[string]*sync.RWMutex),
		logger: logging.With("component", "storage.file"),
	}, nil
}

func (fs *FileStore) lock(deviceID string) *sync.RWMutex {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	l, ok := fs.locks[deviceID]
	if !ok {
		l = &sync.RWMutex{}
		fs.locks[deviceID] = l
	}
	return l
}

func (fs *FileStore) path(deviceID string) string {
	return filepath.Join(fs.dir, deviceID+".csv")
}

// validFileName rejects ids that would escape the data directory
func validFileName(deviceID string) error {
	if deviceID == "" || strings.ContainsAny(deviceID, `/\`) || deviceID == "." || deviceID == ".." {
		return fmt.Errorf("invalid device id %q", deviceID)
	}
	return nil
}

func (fs *FileStore) Append(ctx context.Context, deviceID string, readings []analytics.Reading) error {
	if err := validFileName(deviceID); err != nil {
		return err
	}
	if len(readings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := fs.lock(deviceID)
	l.Lock()
	defer l.Unlock()

	p := fs.path(deviceID)
	_, statErr := os.Stat(p)
	isNew := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if isNew {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, r := range readings {
		row := []string{
			strconv.FormatInt(r.Timestamp, 10),
			strconv.FormatFloat(r.Temp, 'f', -1, 64),
			strconv.FormatFloat(r.Hum, 'f', -1, 64),
			strconv.FormatFloat(r.Lux, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write readings: %w", err)
	}
	return bw.Flush()
}

// Snapshot reads the device file. Rows that fail to parse are skipped.
func (fs *FileStore) Snapshot(ctx context.Context, deviceID string) ([]analytics.Reading, error) {
	if err := validFileName(deviceID); err != nil {
		return nil, err
	}

	l := fs.lock(deviceID)
	l.RLock()
	defer l.RUnlock()

	f, err := os.Open(fs.path(deviceID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var readings []analytics.Reading
	skipped := 0
	for line := 0; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if line == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		reading, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		readings = append(readings, reading)
	}

	if skipped > 0 {
		fs.logger.Warn("Skipped unparsable rows", "device_id", deviceID, "rows", skipped)
	}
	return readings, nil
}

func parseRow(row []string) (analytics.Reading, bool) {
	if len(row) < 4 {
		return analytics.Reading{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		// tolerate float timestamps written by older producers
		f, ferr := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if ferr != nil {
			return analytics.Reading{}, false
		}
		ts = int64(f)
	}

	var vals [3]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return analytics.Reading{}, false
		}
		vals[i] = v
	}
	return analytics.Reading{Timestamp: ts, Temp: vals[0], Hum: vals[1], Lux: vals[2]}, true
}

func (fs *FileStore) Devices(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Clear renames the device file to <file>.backup.<unix seconds> and starts
// a fresh file holding only the header
func (fs *FileStore) Clear(ctx context.Context, deviceID string) error {
	if err := validFileName(deviceID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := fs.lock(deviceID)
	l.Lock()
	defer l.Unlock()

	p := fs.path(deviceID)
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	backup := fmt.Sprintf("%s.backup.%d", p, time.Now().Unix())
	if err := os.Rename(p, backup); err != nil {
		return fmt.Errorf("failed to back up %s: %w", p, err)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to recreate %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fs.logger.Info("Device file cleared", "device_id", deviceID, "backup", filepath.Base(backup))
	return nil
}

// Ping checks that the data directory is still present
func (fs *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(fs.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", fs.dir)
	}
	return nil
}

func (fs *FileStore) Close() error {
	return nil
}
