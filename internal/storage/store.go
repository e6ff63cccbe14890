package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const metadataFile = "metadata.json"

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one simulate, evaluate or fit run.
type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Timestamp   time.Time          `json:"timestamp"`
	Source      string             `json:"source,omitempty"`
	Integrator  string             `json:"integrator"`
	Params      map[string]float64 `json:"params"`
	Fitted      map[string]float64 `json:"fitted,omitempty"`
	Initial     []float64          `json:"initial,omitempty"`
	Objective   float64            `json:"objective"`
	Iterations  int                `json:"iterations,omitempty"`
	Evaluations int                `json:"evaluations,omitempty"`
	Converged   bool               `json:"converged,omitempty"`
	Status      string             `json:"status,omitempty"`
	Episodes    int                `json:"episodes"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Files       []string           `json:"files"`
}

// Trajectory is a table of equally long columns sharing a time axis.
type Trajectory struct {
	Name    string      `json:"name"`
	Times   []float64   `json:"times"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Save writes meta and one CSV per trajectory into a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, trajectories []Trajectory) (string, error) {
	if meta.Kind == "" {
		return "", fmt.Errorf("run kind not set")
	}
	runID := fmt.Sprintf("%s_%s", meta.Kind, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Files = make([]string, 0, len(trajectories))

	for _, tr := range trajectories {
		file := tr.Name + ".csv"
		if err := writeTrajectory(filepath.Join(runDir, file), tr); err != nil {
			return "", fmt.Errorf("write %s: %w", file, err)
		}
		meta.Files = append(meta.Files, file)
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		metaFile.Close()
		return "", err
	}
	if err := metaFile.Close(); err != nil {
		return "", err
	}

	return runID, nil
}

func writeTrajectory(path string, tr Trajectory) error {
	for i, col := range tr.Values {
		if len(col) != len(tr.Times) {
			return fmt.Errorf("column %d has %d rows for %d timestamps", i, len(col), len(tr.Times))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeTrajectory(f, tr); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeTrajectory(out io.Writer, tr Trajectory) error {
	w := csv.NewWriter(out)

	header := append([]string{"time"}, tr.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range tr.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for _, col := range tr.Values {
			row = append(row, strconv.FormatFloat(col[i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadTrajectory(runID, name string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name+".csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty trajectory file", name)
	}

	header := records[0]
	tr := &Trajectory{
		Name:    name,
		Times:   make([]float64, 0, len(records)-1),
		Columns: append([]string(nil), header[1:]...),
		Values:  make([][]float64, len(header)-1),
	}

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", name, i+1, err)
		}
		tr.Times = append(tr.Times, t)

		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %s: %w", name, i+1, header[j], err)
			}
			tr.Values[j-1] = append(tr.Values[j-1], val)
		}
	}

	return tr, nil
}
