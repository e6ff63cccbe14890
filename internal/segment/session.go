package segment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const timeColumn = "time"

// LoadSession decodes a recording exported as JSON or CSV, chosen by file
// extension.
//
// JSON: {"timestamps": [...], "channels": {"name": [...]}}, null marks a
// missing sample. CSV: a header "time,<channel>,..." and one row per
// sample, an empty cell marks a missing sample.
func LoadSession(path string) (Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f)
	case ".csv":
		return DecodeCSV(f)
	default:
		return Session{}, fmt.Errorf("unsupported session format %q", filepath.Ext(path))
	}
}

type jsonSession struct {
	Timestamps []float64             `json:"timestamps"`
	Channels   map[string][]*float64 `json:"channels"`
}

func DecodeJSON(r io.Reader) (Session, error) {
	var raw jsonSession
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if raw.Timestamps == nil {
		return Session{}, fmt.Errorf("decode session: missing timestamps")
	}

	s := Session{Timestamps: raw.Timestamps, Channels: make(map[string][]float64, len(raw.Channels))}
	for name, vals := range raw.Channels {
		out := make([]float64, len(vals))
		for i, v := range vals {
			if v == nil {
				out[i] = math.NaN()
			} else {
				out[i] = *v
			}
		}
		s.Channels[name] = out
	}
	return s, nil
}

func DecodeCSV(r io.Reader) (Session, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 || strings.TrimSpace(records[0][0]) != timeColumn {
		return Session{}, fmt.Errorf("decode session: header must start with %q", timeColumn)
	}

	header := records[0]
	s := Session{
		Timestamps: make([]float64, 0, len(records)-1),
		Channels:   make(map[string][]float64, len(header)-1),
	}
	for _, name := range header[1:] {
		s.Channels[strings.TrimSpace(name)] = make([]float64, 0, len(records)-1)
	}

	for row, record := range records[1:] {
		t, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return Session{}, fmt.Errorf("decode session: row %d: bad timestamp: %w", row+1, err)
		}
		s.Timestamps = append(s.Timestamps, t)

		for j, name := range header[1:] {
			name = strings.TrimSpace(name)
			v := math.NaN()
			if j+1 < len(record) {
				if cell := strings.TrimSpace(record[j+1]); cell != "" {
					v, err = strconv.ParseFloat(cell, 64)
					if err != nil {
						return Session{}, fmt.Errorf("decode session: row %d column %q: %w", row+1, name, err)
					}
				}
			}
			s.Channels[name] = append(s.Channels[name], v)
		}
	}
	return s, nil
}
