// Package wal is a segmented append-only log. Each record is framed as
//
//	[4 bytes length LE][4 bytes CRC32 LE][payload]
//
// and segments are named wal-<sequence>.log. Every Open starts a new
// segment, so a crash can only tear the tail of a segment; Replay treats
// a short record as the end of that segment.
package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/soltixdb/climatix/internal/logging"
)

const headerSize = 8

// DefaultMaxSegmentSize is the rotation size when Options leaves it unset
const DefaultMaxSegmentSize = 16 * 1024 * 1024

// ErrCorrupt is returned by Replay when a record fails its checksum
var ErrCorrupt = errors.New("wal: corrupt record")

// ErrClosed is returned by writes after Close
var ErrClosed = errors.New("wal: closed")

// Options configures Open
type Options struct {
	MaxSegmentSize int64
	SyncWrites     bool // fsync after every Append
}

// Log is a write-ahead log rooted at one directory
type Log struct {
	dir  string
	opts Options

	mu      sync.Mutex
	file    *os.File
	segment int64
	size    int64

	logger *logging.Logger
}

// Open opens dir, creating it if needed. Writes go to a fresh segment
// after the highest existing one.
func Open(dir string, opts Options) (*Log, error) {
	if opts.MaxSegmentSize <= 0 {
		opts.MaxSegmentSize = DefaultMaxSegmentSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	segments, err := listSegments(dir)
	if err != nil {
		return nil, err
	}

	l := &Log{
		dir:    dir,
		opts:   opts,
		logger: logging.With("component", "wal", "dir", dir),
	}
	if n := len(segments); n > 0 {
		l.segment = segments[n-1]
	}
	if err := l.openSegment(l.segment + 1); err != nil {
		return nil, err
	}
	return l, nil
}

func segmentName(seq int64) string {
	return fmt.Sprintf("wal-%d.log", seq)
}

// listSegments returns segment sequence numbers in ascending order
func listSegments(dir string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAL directory: %w", err)
	}

	var seqs []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var seq int64
		if _, err := fmt.Sscanf(e.Name(), "wal-%d.log", &seq); err == nil {
			seqs = append(seqs, seq)
		}
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs, nil
}

func (l *Log) openSegment(seq int64) error {
	path := filepath.Join(l.dir, segmentName(seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open segment file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat segment file: %w", err)
	}

	l.file = f
	l.segment = seq
	l.size = stat.Size()
	return nil
}

// rotateLocked closes the current segment and opens the next one
func (l *Log) rotateLocked() error {
	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return err
		}
		if err := l.file.Close(); err != nil {
			return err
		}
	}
	return l.openSegment(l.segment + 1)
}

func (l *Log) writeLocked(payload []byte) error {
	if l.file == nil {
		return ErrClosed
	}

	buf := make([]byte, headerSize, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(payload))
	buf = append(buf, payload...)

	if _, err := l.file.Write(buf); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	l.size += int64(len(buf))
	return nil
}

// Append writes one record
func (l *Log) Append(payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeLocked(payload); err != nil {
		return err
	}
	if l.opts.SyncWrites {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync WAL: %w", err)
		}
	}
	if l.size >= l.opts.MaxSegmentSize {
		if err := l.rotateLocked(); err != nil {
			return fmt.Errorf("failed to rotate segment: %w", err)
		}
	}
	return nil
}

// Replay calls fn for every record in write order. It must run before
// concurrent Appends start.
func (l *Log) Replay(fn func(payload []byte) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	segments, err := listSegments(l.dir)
	if err != nil {
		return err
	}
	for _, seq := range segments {
		if err := l.replaySegment(seq, fn); err != nil {
			return fmt.Errorf("segment %s: %w", segmentName(seq), err)
		}
	}
	return nil
}

func (l *Log) replaySegment(seq int64, fn func([]byte) error) error {
	f, err := os.Open(filepath.Join(l.dir, segmentName(seq)))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF {
				return nil
			}
			if err == io.ErrUnexpectedEOF {
				l.logger.Warn("Ignoring torn WAL record", "segment", seq)
				return nil
			}
			return fmt.Errorf("failed to read header: %w", err)
		}

		length := binary.LittleEndian.Uint32(header[0:4])
		checksum := binary.LittleEndian.Uint32(header[4:8])
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				l.logger.Warn("Ignoring torn WAL record", "segment", seq)
				return nil
			}
			return fmt.Errorf("failed to read record: %w", err)
		}
		if crc32.ChecksumIEEE(payload) != checksum {
			return ErrCorrupt
		}
		if err := fn(payload); err != nil {
			return err
		}
	}
}

// Rewrite replaces the whole log with records: they go to a new segment,
// which is synced before every older segment is removed
func (l *Log) Rewrite(records [][]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateLocked(); err != nil {
		return err
	}
	keep := l.segment
	for _, r := range records {
		if err := l.writeLocked(r); err != nil {
			return err
		}
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync WAL: %w", err)
	}

	segments, err := listSegments(l.dir)
	if err != nil {
		return err
	}
	for _, seq := range segments {
		if seq >= keep {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, segmentName(seq))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove segment %d: %w", seq, err)
		}
	}
	return nil
}

// SegmentCount returns the number of segment files on disk
func (l *Log) SegmentCount() (int, error) {
	segments, err := listSegments(l.dir)
	return len(segments), err
}

// Ping reports whether the log accepts writes and its directory is present
func (l *Log) Ping() error {
	l.mu.Lock()
	closed := l.file == nil
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if _, err := os.Stat(l.dir); err != nil {
		return fmt.Errorf("wal: %w", err)
	}
	return nil
}

// Close syncs and closes the current segment, removing it when empty
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return err
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil

	if l.size == 0 {
		_ = os.Remove(filepath.Join(l.dir, segmentName(l.segment)))
	}
	return nil
}
