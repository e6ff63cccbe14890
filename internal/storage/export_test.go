package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExport(t *testing.T) {
	st := New(t.TempDir())

	trs := []Trajectory{
		{Name: "episode_000", Times: []float64{0, 1}, Columns: []string{"a"}, Values: [][]float64{{1, 2}}},
		{Name: "episode_001", Times: []float64{0, 1}, Columns: []string{"a"}, Values: [][]float64{{3, 4}}},
	}
	runID, err := st.Save(RunMetadata{Kind: "evaluate", Objective: 1.5, Episodes: 2}, trs)
	if err != nil {
		t.Fatal(err)
	}

	data, err := st.Export(runID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if diff := cmp.Diff(trs, data.Trajectories); diff != "" {
		t.Errorf("trajectories mismatch:\n%s", diff)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, data); err != nil {
		t.Fatal(err)
	}
	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Run.ID != runID || decoded.Run.Objective != 1.5 {
		t.Errorf("unexpected run %+v", decoded.Run)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSONFile(path, data); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(buf.String(), string(written)); diff != "" {
		t.Errorf("exported file mismatch:\n%s", diff)
	}
	if err := ExportJSONFile(filepath.Join(t.TempDir(), "missing", "run.json"), data); err == nil {
		t.Error("expected error for missing directory")
	}

	if _, err := st.Export("missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}
