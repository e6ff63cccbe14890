// Package episode defines a segmented measurement trial and its JSON
// interchange form: a list of flat objects mapping channel name to samples,
// each with a mandatory "timestamps" key starting at 0.
package episode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const TimestampsKey = "timestamps"

type Episode struct {
	Timestamps []float64
	Channels   map[string][]float64
}

func New() Episode {
	return Episode{Channels: make(map[string][]float64)}
}

func (e Episode) Len() int { return len(e.Timestamps) }

// Channel returns the samples of name or an error naming the channel.
func (e Episode) Channel(name string) ([]float64, error) {
	if name == TimestampsKey {
		return e.Timestamps, nil
	}
	v, ok := e.Channels[name]
	if !ok {
		return nil, fmt.Errorf("missing channel %q", name)
	}
	return v, nil
}

// Names returns the channel names in sorted order.
func (e Episode) Names() []string {
	names := make([]string, 0, len(e.Channels))
	for k := range e.Channels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (e Episode) MarshalJSON() ([]byte, error) {
	flat := make(map[string][]float64, len(e.Channels)+1)
	for k, v := range e.Channels {
		flat[k] = v
	}
	ts := e.Timestamps
	if ts == nil {
		ts = []float64{}
	}
	flat[TimestampsKey] = ts
	return json.Marshal(flat)
}

func (e *Episode) UnmarshalJSON(data []byte) error {
	var flat map[string][]float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	ts, ok := flat[TimestampsKey]
	if !ok {
		return fmt.Errorf("episode without %q key", TimestampsKey)
	}
	delete(flat, TimestampsKey)

	e.Timestamps = ts
	e.Channels = flat
	return nil
}

// Load reads a JSON list of episodes.
func Load(path string) ([]Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func Decode(data []byte) ([]Episode, error) {
	var eps []Episode
	if err := json.Unmarshal(data, &eps); err != nil {
		return nil, fmt.Errorf("decode episodes: %w", err)
	}
	return eps, nil
}

func Encode(eps []Episode) ([]byte, error) {
	if eps == nil {
		eps = []Episode{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(eps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Save(path string, eps []Episode) error {
	data, err := Encode(eps)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
