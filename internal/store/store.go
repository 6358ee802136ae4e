package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ErrNotFound is returned by Find when no record carries the requested id.
var ErrNotFound = errors.New("record not found")

// IDField is the column every store keeps its record ids in.
const IDField = "id"

// Record is a single row, keyed by field name.
type Record map[string]string

// ID returns the record's numeric id, or false if it has none.
func (r Record) ID() (int, bool) {
	return parseID(r[IDField])
}

// Store keeps homogeneous records in one comma-delimited file: a header row
// followed by one row per record.
type Store struct {
	path    string
	fields  []string
	renames map[string]string // legacy column name -> field name

	mu     sync.Mutex // guards nextID
	nextID int
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithRenamedColumn maps a column called from in an existing file onto the
// field to.
func WithRenamedColumn(from, to string) Option {
	return func(s *Store) {
		s.renames[from] = to
	}
}

// Open creates the file with a header row if it does not exist yet, then
// scans it to seed the id counter at one past the highest id found.
//
// A file whose header differs from fields is rewritten with fields as its
// header, carrying values over by column name; columns that are not fields
// are dropped. Afterwards the header always matches the order rows are
// written in.
func Open(path string, fields []string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		fields:  append([]string(nil), fields...),
		renames: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	if err := s.normalizeHeader(); err != nil {
		return nil, err
	}

	records, err := s.ScanAll()
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, rec := range records {
		if id, ok := rec.ID(); ok && id > maxID {
			maxID = id
		}
	}
	s.nextID = maxID + 1

	return s, nil
}

func (s *Store) ensureFile() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not stat %s: %w", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	return s.RewriteAll(nil)
}

func (s *Store) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read header of %s: %w", s.path, err)
	}
	return header, nil
}

func (s *Store) normalizeHeader() error {
	header, err := s.readHeader()
	if err != nil {
		return err
	}
	if equalColumns(header, s.fields) {
		return nil
	}

	records, err := s.ScanAll()
	if err != nil {
		return err
	}
	for _, rec := range records {
		for from, to := range s.renames {
			if v, ok := rec[from]; ok && rec[to] == "" {
				rec[to] = v
			}
		}
	}
	if err := s.RewriteAll(records); err != nil {
		return fmt.Errorf("could not rewrite header of %s: %w", s.path, err)
	}
	return nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Fields returns the store's column names in file order.
func (s *Store) Fields() []string {
	return append([]string(nil), s.fields...)
}

// NextID hands out the current counter value and advances it.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id
}

// Append writes a single row at the end of the file.
func (s *Store) Append(rec Record) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open %s for append: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.row(rec)); err != nil {
		return fmt.Errorf("could not append to %s: %w", s.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not append to %s: %w", s.path, err)
	}
	return f.Close()
}

// Insert assigns the next id to rec, appends it and returns the id.
func (s *Store) Insert(rec Record) (int, error) {
	id := s.NextID()

	row := make(Record, len(rec)+1)
	for k, v := range rec {
		row[k] = v
	}
	row[IDField] = strconv.Itoa(id)

	if err := s.Append(row); err != nil {
		return 0, err
	}
	return id, nil
}

// ScanAll reads every record in file order. Columns are mapped through the
// file's own header row.
func (s *Store) ScanAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read header of %s: %w", s.path, err)
	}

	records := []Record{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", s.path, err)
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// RewriteAll truncates the file and writes the header followed by records.
// The truncate happens before the write, so a crash in between loses data.
func (s *Store) RewriteAll(records []Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not truncate %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.fields); err != nil {
		return fmt.Errorf("could not write header to %s: %w", s.path, err)
	}
	for _, rec := range records {
		if err := w.Write(s.row(rec)); err != nil {
			return fmt.Errorf("could not write %s: %w", s.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not write %s: %w", s.path, err)
	}
	return f.Close()
}

// Find returns the record with the given id.
func (s *Store) Find(id int) (Record, error) {
	records, err := s.ScanAll()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if recID, ok := rec.ID(); ok && recID == id {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// Update overwrites the fields of the matching record with the non-empty
// values in partial, then rewrites the file. An unknown id changes nothing.
func (s *Store) Update(id int, partial Record) error {
	records, err := s.ScanAll()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if recID, ok := rec.ID(); !ok || recID != id {
			continue
		}
		for k, v := range partial {
			if k == IDField || v == "" {
				continue
			}
			rec[k] = v
		}
	}
	return s.RewriteAll(records)
}

// Delete drops the matching record and rewrites the file. An unknown id
// changes nothing.
func (s *Store) Delete(id int) error {
	records, err := s.ScanAll()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if recID, ok := rec.ID(); ok && recID == id {
			continue
		}
		kept = append(kept, rec)
	}
	return s.RewriteAll(kept)
}

func (s *Store) row(rec Record) []string {
	row := make([]string, len(s.fields))
	for i, name := range s.fields {
		row[i] = rec[name]
	}
	return row
}

func parseID(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return id, true
}
