package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/bngenvs/pkg/history"
)

// Scalar is one named value of a run's flat projection.
type Scalar struct {
	Key   string
	Value any
}

// Scalars flattens params, config, results and the outcome into one row, each key
// prefixed by its source ("params_", "config_", "results_", "outcome_"), followed by
// run_id. The connection config appears as config_bng_config. Keys are sorted within
// each source.
func (r *Record) Scalars() ([]Scalar, error) {
	config := make(map[string]any, len(r.Config)+1)
	for k, v := range r.Config {
		config[k] = v
	}
	config["bng_config"] = r.BNGConfig

	sources := []struct {
		prefix string
		v      any
	}{
		{"params", r.Params},
		{"config", config},
		{"results", r.Results},
		{"outcome", r.Outcome},
	}
	var out []Scalar
	for _, src := range sources {
		m, err := plainMap(src.v)
		if err != nil {
			return nil, fmt.Errorf("failed to flatten %s: %w", src.prefix, err)
		}
		for _, k := range sortedKeys(m) {
			out = append(out, Scalar{Key: src.prefix + "_" + k, Value: m[k]})
		}
	}
	return append(out, Scalar{Key: "run_id", Value: r.RunID}), nil
}

// ScalarMap is Scalars keyed by name.
func (r *Record) ScalarMap() (map[string]any, error) {
	scalars, err := r.Scalars()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(scalars))
	for _, s := range scalars {
		out[s.Key] = s.Value
	}
	return out, nil
}

// Table is a column-labelled set of rows. Index, when IndexName is set, labels each row.
type Table struct {
	IndexName string
	Index     []any
	Columns   []string
	Rows      [][]any
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the values of the named column, or nil when it does not exist.
func (t *Table) Column(name string) []any {
	for i, c := range t.Columns {
		if c == name {
			out := make([]any, len(t.Rows))
			for j, row := range t.Rows {
				out[j] = row[i]
			}
			return out
		}
	}
	return nil
}

// WriteCSV writes a header line and one line per row. nil values are empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := t.Columns
	if t.IndexName != "" {
		header = append([]string{t.IndexName}, t.Columns...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, row := range t.Rows {
		cells := row
		if t.IndexName != "" {
			cells = append([]any{t.Index[i]}, row...)
		}
		for j := range rec {
			rec[j] = ""
			if j < len(cells) {
				rec[j] = formatCell(cells[j])
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// TimeSeries unpacks the observation history into one row per step indexed by time_s.
//
// Columns are derived from the first step. A sensor whose sample is an object yields
// one column per field, named <sensor>_<field>_<dimension>; list fields give one
// dimension per element, object fields one per key and scalar fields the single
// dimension 0. A sensor whose sample is a scalar yields one column named after it.
// Sensors, fields and object dimensions are ordered by name.
func (r *Record) TimeSeries() (*Table, error) {
	seqs := r.History.Map()
	t := &Table{IndexName: history.KeyTime}
	raw, err := plain(seqs[history.KeyCarState])
	if err != nil {
		return nil, fmt.Errorf("failed to flatten observations: %w", err)
	}
	steps, _ := raw.([]any)
	if len(steps) == 0 {
		return t, nil
	}
	first, ok := steps[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("observation has unexpected type %T", steps[0])
	}

	type column struct {
		name string
		path []string
	}
	var cols []column
	for _, sensor := range sortedKeys(first) {
		fields, ok := first[sensor].(map[string]any)
		if !ok {
			cols = append(cols, column{name: sensor, path: []string{sensor}})
			continue
		}
		for _, field := range sortedKeys(fields) {
			for _, dim := range dimensions(fields[field]) {
				cols = append(cols, column{
					name: sensor + "_" + field + "_" + dim,
					path: []string{sensor, field, dim},
				})
			}
		}
	}

	t.Columns = make([]string, len(cols))
	for i, c := range cols {
		t.Columns[i] = c.name
	}
	times := seqs[history.KeyTime]
	for i, step := range steps {
		obs, _ := step.(map[string]any)
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = lookup(obs, c.path)
		}
		t.Rows = append(t.Rows, row)
		if i < len(times) {
			t.Index = append(t.Index, times[i])
		} else {
			t.Index = append(t.Index, nil)
		}
	}
	return t, nil
}

func dimensions(v any) []string {
	switch t := v.(type) {
	case []any:
		dims := make([]string, len(t))
		for i := range t {
			dims[i] = strconv.Itoa(i)
		}
		return dims
	case map[string]any:
		return sortedKeys(t)
	default:
		return []string{"0"}
	}
}

func lookup(obs map[string]any, path []string) any {
	if len(path) == 1 {
		return obs[path[0]]
	}
	fields, ok := obs[path[0]].(map[string]any)
	if !ok {
		return nil
	}
	switch v := fields[path[1]].(type) {
	case []any:
		i, err := strconv.Atoi(path[2])
		if err != nil || i >= len(v) {
			return nil
		}
		return v[i]
	case map[string]any:
		return v[path[2]]
	default:
		if path[2] == "0" {
			return v
		}
		return nil
	}
}

// RawLogs parses the record's raw CSV logs side by side, each column prefixed with its
// file name. Rows are aligned by position; shorter files are padded with nil. Empty or
// unreadable files are skipped with a warning. ok is false when the record has no raw
// logs.
func (r *Record) RawLogs() (t *Table, ok bool, err error) {
	if r.dir == "" {
		return nil, false, nil
	}
	files, err := rawLogFiles(r.dir)
	if err != nil {
		return nil, false, err
	}
	if len(files) == 0 {
		return nil, false, nil
	}

	t = &Table{}
	for _, path := range files {
		part, err := readRawLog(path)
		if err != nil {
			r.logger.Warn("skipping unreadable raw log", "file", filepath.Base(path), "err", err)
			continue
		}
		t = joinColumns(t, part)
	}
	return t, true, nil
}

func rawLogFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func readRawLog(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no columns to parse")
	}
	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	t := &Table{Columns: make([]string, len(records[0]))}
	for i, c := range records[0] {
		t.Columns[i] = name + "_" + c
	}
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				row[i] = f
			} else {
				row[i] = cell
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func joinColumns(a, b *Table) *Table {
	n := max(len(a.Rows), len(b.Rows))
	out := &Table{Columns: append(append([]string(nil), a.Columns...), b.Columns...)}
	for i := 0; i < n; i++ {
		row := make([]any, 0, len(out.Columns))
		row = appendPadded(row, a, i)
		row = appendPadded(row, b, i)
		out.Rows = append(out.Rows, row)
	}
	return out
}

func appendPadded(row []any, t *Table, i int) []any {
	if i < len(t.Rows) {
		cells := t.Rows[i]
		for j := range t.Columns {
			if j < len(cells) {
				row = append(row, cells[j])
			} else {
				row = append(row, nil)
			}
		}
		return row
	}
	return append(row, make([]any, len(t.Columns))...)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
