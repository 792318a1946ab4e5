package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/gofrs/flock"
)

// ErrOutputLocked is returned when another run holds the output lock
var ErrOutputLocked = errors.New("output file is locked by another run")

// ResultWriter implements repository.ResultWriter
type ResultWriter struct {
	path   string
	stdout io.Writer
}

// NewResultWriter creates a result writer (use "-" for stdout)
func NewResultWriter(path string) *ResultWriter {
	return &ResultWriter{path: path, stdout: os.Stdout}
}

// Path implements repository.ResultWriter
func (w *ResultWriter) Path() string {
	return w.path
}

// WriteResults implements repository.ResultWriter.
// The file is written next to its destination and renamed into place while
// holding an advisory lock on "<path>.lock".
func (w *ResultWriter) WriteResults(urls []string) error {
	sorted := make([]string, len(urls))
	copy(sorted, urls)
	sort.Strings(sorted)

	if w.path == "-" {
		return writeLines(w.stdout, sorted)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(w.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return ErrOutputLocked
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeLines(tmp, sorted); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func writeLines(out io.Writer, lines []string) error {
	bw := bufio.NewWriter(out)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	return bw.Flush()
}

// FetchLogWriter implements repository.FetchLogWriter
type FetchLogWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewFetchLogWriter creates a JSONL fetch log
func NewFetchLogWriter(filename string) (*FetchLogWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &FetchLogWriter{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// WriteFetchLog implements repository.FetchLogWriter
func (w *FetchLogWriter) WriteFetchLog(entry *entity.FetchLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.encoder.Encode(entry)
}

// Close implements repository.FetchLogWriter
func (w *FetchLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
