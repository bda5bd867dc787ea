package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	ports "hostelfees/internal/sheets"
)

// Store is an in-process spreadsheet: a set of named grids addressed with
// the same A1 ranges as the Sheets API.
type Store struct {
	mu     sync.RWMutex
	order  []string
	grids  map[string][][]string
	nextID int64
	ids    map[string]int64
}

var _ ports.DataSource = (*Store)(nil)

// New builds a store from named grids. Sheet ids follow name order.
func New(grids map[string][][]string) *Store {
	s := &Store{grids: map[string][][]string{}, ids: map[string]int64{}}
	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s.Put(name, grids[name])
	}
	return s
}

// NewFromDir loads every "<SHEET NAME>.csv" file in base. A file that
// cannot be read or parsed fails the load, naming the file. When base holds
// no CSV files the store is seeded with a small demo sheet.
func NewFromDir(base string) (*Store, error) {
	paths, err := filepath.Glob(filepath.Join(base, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list seed files in %s: %w", base, err)
	}
	if len(paths) == 0 {
		return New(DemoSheets()), nil
	}

	grids := make(map[string][][]string, len(paths))
	var errs []error
	for _, p := range paths {
		grid, err := readCSV(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("load seed file %s: %w", p, err))
			continue
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		grids[name] = grid
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return New(grids), nil
}

// DemoSheets returns sample data used when no seed files exist.
func DemoSheets() map[string][][]string {
	return map[string][][]string{
		"JANUARY 2025": {
			{"S.NO", "NAME", "ROOM", "YEAR", "AMOUNT", "PAID"},
			{"1", "Arun", "101", "1st Year", "2750", "Paid"},
			{"2", "Bala", "101", "1st Year", "2750", "Pending"},
			{"3", "Charan", "102", "2nd Year", "2,750", "PAID"},
			{"4", "Deepak", "103", "3rd Year", "N/A", ""},
			{"5", "Ezhil", "", "2nd Year", "500", "Paid"},
		},
	}
}

// Put replaces or adds a sheet. New sheets get the next id.
func (s *Store) Put(name string, grid [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[name]; !ok {
		s.ids[name] = s.nextID
		s.nextID++
		s.order = append(s.order, name)
	}
	s.grids[name] = cloneGrid(grid)
}

// FetchRange implements ports.RangeFetcher.
func (s *Store) FetchRange(_ context.Context, sheet, cells string) ([][]string, error) {
	r, err := ports.ParseA1Range(cells)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	grid, ok := s.grids[sheet]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", ports.QualifiedRange(sheet, cells), ports.ErrSheetNotFound)
	}
	return r.Apply(grid), nil
}

// ListSheets implements ports.SheetLister, in insertion order.
func (s *Store) ListSheets(_ context.Context) ([]ports.SheetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.SheetInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, ports.SheetInfo{Name: name, ID: s.ids[name]})
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func cloneGrid(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = slices.Clone(row)
	}
	return out
}
