package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kalimax/kalimax/internal/corpus"
)

// row is one CSV line keyed by lowercased header name.
type row map[string]string

// readRows reads a headed CSV stream. Blank lines are skipped.
func readRows(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		rw := make(row, len(header))
		empty := true
		for i, v := range rec {
			rw[header[i]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, rw)
		}
	}
	return rows, nil
}

func (r row) get(key, fallback string) string {
	if v := strings.TrimSpace(r[key]); v != "" {
		return v
	}
	return fallback
}

func (r row) bool(key string, fallback bool) (bool, error) {
	v := strings.ToLower(r.get(key, ""))
	switch v {
	case "":
		return fallback, nil
	case "1", "true", "yes", "y", "wi":
		return true, nil
	case "0", "false", "no", "n", "non":
		return false, nil
	}
	return false, fmt.Errorf("column %s: invalid boolean %q", key, r[key])
}

func (r row) float(key string, fallback float64) (float64, error) {
	v := r.get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", key, err)
	}
	return f, nil
}

// list accepts a JSON array or a comma-separated value.
func (r row) list(key string) (corpus.StringList, error) {
	v := r.get(key, "")
	if v == "" {
		return corpus.StringList{}, nil
	}
	if strings.HasPrefix(v, "[") {
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		return out, nil
	}
	var out corpus.StringList
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r row) context() (corpus.Context, error) {
	m := make(map[string]string)
	for _, key := range []string{"audience", "speaker_role", "register", "region", "formality", "sensitivity"} {
		if v := r.get(key, ""); v != "" {
			m[key] = v
		}
	}
	return corpus.ContextFromMap(m)
}
