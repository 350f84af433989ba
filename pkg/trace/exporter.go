package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	defaultMaxLogBytes   = 10 << 20
	defaultRotatedFiles  = 5
	unknownBackendLogKey = "unknown"
)

// FileExporter appends trace records as JSON Lines under a directory, one
// file per backend (<dir>/<backend>.jsonl). Each backend log is rotated
// independently once it reaches the size limit.
type FileExporter struct {
	dir          string
	maxBytes     int64
	keepRotated  int
	failuresOnly bool

	mu     sync.Mutex
	logs   map[string]*backendLog
	closed bool
}

type backendLog struct {
	path string
	f    *os.File
	size int64
}

// WithMaxSize sets the size in bytes at which a backend log is rotated (default 10MB).
func WithMaxSize(bytes int64) FileExporterOption {
	return func(fe *FileExporter) { fe.maxBytes = bytes }
}

// WithMaxRotatedFiles sets how many rotated files are kept per backend (default 5).
func WithMaxRotatedFiles(count int) FileExporterOption {
	return func(fe *FileExporter) { fe.keepRotated = count }
}

// WithFailuresOnly drops records whose Status is not "error".
func WithFailuresOnly() FileExporterOption {
	return func(fe *FileExporter) { fe.failuresOnly = true }
}

// NewFileExporter creates an exporter writing under dir.
// An empty dir yields a NoopExporter.
func NewFileExporter(dir string, opts ...FileExporterOption) (Exporter, error) {
	if dir == "" {
		return NewNoopExporter(), nil
	}
	fe := &FileExporter{
		dir:         dir,
		maxBytes:    defaultMaxLogBytes,
		keepRotated: defaultRotatedFiles,
		logs:        make(map[string]*backendLog),
	}
	for _, opt := range opts {
		opt(fe)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	return fe, nil
}

// LogPath returns the live log file for backend.
func (fe *FileExporter) LogPath(backend string) string {
	return filepath.Join(fe.dir, logKey(backend)+".jsonl")
}

// Export appends record to its backend's log.
func (fe *FileExporter) Export(ctx context.Context, record *TraceRecord) error {
	if fe.failuresOnly && record.Status != "error" {
		return nil
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode trace record: %w", err)
	}
	line = append(line, '\n')

	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.closed {
		return errors.New("exporter closed")
	}

	bl, err := fe.open(record.Backend)
	if err != nil {
		return err
	}
	n, err := bl.f.Write(line)
	bl.size += int64(n)
	if err != nil {
		return fmt.Errorf("write %s: %w", bl.path, err)
	}
	if bl.size >= fe.maxBytes {
		if err := fe.rotate(bl); err != nil {
			return fmt.Errorf("rotate %s: %w", bl.path, err)
		}
	}
	return nil
}

// Close syncs and closes every backend log. It is safe to call more than once.
func (fe *FileExporter) Close() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.closed {
		return nil
	}
	fe.closed = true

	var errs []error
	for _, bl := range fe.logs {
		if bl.f == nil {
			continue
		}
		if err := bl.f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", bl.path, err))
		}
		if err := bl.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", bl.path, err))
		}
	}
	return errors.Join(errs...)
}

// open returns the log for backend, opening it on first use. Caller holds mu.
func (fe *FileExporter) open(backend string) (*backendLog, error) {
	key := logKey(backend)
	if bl, ok := fe.logs[key]; ok && bl.f != nil {
		return bl, nil
	}
	bl := &backendLog{path: fe.LogPath(backend)}
	if err := bl.reopen(); err != nil {
		return nil, err
	}
	fe.logs[key] = bl
	return bl, nil
}

// rotate moves the live log to path.1, shifting older generations up and
// discarding anything beyond keepRotated. Caller holds mu.
func (fe *FileExporter) rotate(bl *backendLog) error {
	if err := bl.f.Close(); err != nil {
		return err
	}
	bl.f = nil

	generation := func(n int) string { return fmt.Sprintf("%s.%d", bl.path, n) }
	if err := os.Remove(generation(fe.keepRotated)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for n := fe.keepRotated - 1; n >= 1; n-- {
		if err := os.Rename(generation(n), generation(n+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if fe.keepRotated < 1 {
		if err := os.Remove(bl.path); err != nil {
			return err
		}
	} else if err := os.Rename(bl.path, generation(1)); err != nil {
		return err
	}
	return bl.reopen()
}

func (bl *backendLog) reopen() error {
	f, err := os.OpenFile(bl.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open trace log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat trace log: %w", err)
	}
	bl.f = f
	bl.size = info.Size()
	return nil
}

// logKey maps a backend name to a safe file stem.
func logKey(backend string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, backend)
	if strings.Trim(key, "_") == "" {
		return unknownBackendLogKey
	}
	return key
}
