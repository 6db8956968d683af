package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPermissions  = 0750
	filePermissions = 0640
)

// ErrHeaderMismatch is returned by Open when an existing file shares no
// column with the expected header.
var ErrHeaderMismatch = errors.New("csvfile: header does not match")

// Row is one record keyed by column name.
type Row map[string]string

// Table is a CSV file holding one collection.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Update holds the table lock
//     for the whole read-modify-write.
type Table struct {
	path   string
	header []string

	mu sync.Mutex
}

// Open returns a Table for path, creating the file (and its directory)
// with just the header row if it does not exist.
func Open(path string, header []string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("csvfile: empty header for %s", path)
	}

	t := &Table{path: path, header: append([]string(nil), header...)}

	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := t.save(nil); err != nil {
			return nil, fmt.Errorf("initialising %s: %w", path, err)
		}
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	// Validate the existing header early so a wrong file fails at startup.
	if _, err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Path returns the file backing the table.
func (t *Table) Path() string {
	return t.path
}

// Header returns a copy of the table's columns in file order.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// ReadAll loads every row in file order.
func (t *Table) ReadAll() ([]Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}

// WriteAll replaces the file contents with rows.
func (t *Table) WriteAll(rows []Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save(rows)
}

// Append adds one row at the end of the file.
func (t *Table) Append(row Row) error {
	return t.Update(func(rows []Row) ([]Row, error) {
		return append(rows, row), nil
	})
}

// Update loads all rows, passes them to fn and saves what fn returns.
// Nothing is written if fn returns an error.
func (t *Table) Update(fn func([]Row) ([]Row, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return err
	}
	rows, err = fn(rows)
	if err != nil {
		return err
	}
	return t.save(rows)
}

func (t *Table) load() ([]Row, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", t.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	fileHeader, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", t.path, err)
	}

	index := make(map[string]int, len(fileHeader))
	for i, col := range fileHeader {
		index[col] = i
	}
	known := 0
	for _, col := range t.header {
		if _, ok := index[col]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("%w: %s has columns %v", ErrHeaderMismatch, t.path, fileHeader)
	}

	var rows []Row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", t.path, err)
		}

		row := make(Row, len(t.header))
		for _, col := range t.header {
			if i, ok := index[col]; ok && i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *Table) save(rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), "."+filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("writing header: %w", err)
	}

	rec := make([]string, len(t.header))
	for _, row := range rows {
		for i, col := range t.header {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			tmp.Close() //nolint:errcheck // already failing
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("flushing %s: %w", t.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing %s: %w", t.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		return fmt.Errorf("replacing %s: %w", t.path, err)
	}
	return nil
}
