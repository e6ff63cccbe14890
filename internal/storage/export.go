package storage

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// ExportData is a run with its trajectories inlined.
type ExportData struct {
	Run          RunMetadata  `json:"run"`
	Trajectories []Trajectory `json:"trajectories"`
}

// Export loads a run and all of its trajectory files.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Run: *meta, Trajectories: make([]Trajectory, 0, len(meta.Files))}
	for _, file := range meta.Files {
		tr, err := s.LoadTrajectory(runID, strings.TrimSuffix(file, ".csv"))
		if err != nil {
			return nil, err
		}
		data.Trajectories = append(data.Trajectories, *tr)
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSONFile(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
