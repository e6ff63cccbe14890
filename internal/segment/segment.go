// Package segment slices a continuous recording into measurement episodes
// delimited by a switch channel.
package segment

import (
	"fmt"
	"math"

	"github.com/san-kum/pendulab/internal/episode"
)

// Session is one continuous recording. All channels share the timestamp
// axis; a NaN sample, or a channel shorter than the axis, marks the sample
// as missing.
type Session struct {
	Timestamps []float64
	Channels   map[string][]float64
}

type Config struct {
	SwitchChannel string  `yaml:"switch_channel" json:"switch_channel"`
	Low           float64 `yaml:"low" json:"low"`
	High          float64 `yaml:"high" json:"high"`

	// OffsetChannel is stored as ReferenceLength - raw. Empty disables it.
	OffsetChannel   string  `yaml:"offset_channel" json:"offset_channel"`
	ReferenceLength float64 `yaml:"reference_length" json:"reference_length"`
}

func DefaultConfig() Config {
	return Config{
		SwitchChannel:   "switch_mess",
		Low:             0.1,
		High:            0.9,
		OffsetChannel:   "y_out_mess",
		ReferenceLength: 1.2,
	}
}

func (c Config) Validate() error {
	if c.SwitchChannel == "" {
		return fmt.Errorf("segment: switch channel not set")
	}
	if !(c.Low <= c.High) {
		return fmt.Errorf("segment: low threshold %g above high threshold %g", c.Low, c.High)
	}
	return nil
}

func (s Session) sample(name string, i int) (float64, bool) {
	v, ok := s.Channels[name]
	if !ok || i >= len(v) || math.IsNaN(v[i]) {
		return 0, false
	}
	return v[i], true
}

// Segment scans the session in timestamp order. An episode opens when the
// switch drops below Low and collects every following sample, timestamps
// rebased to the opening sample, until the switch rises above High. The
// closing sample is not part of the episode, and an episode still open
// when the data ends is dropped.
func Segment(s Session, cfg Config) ([]episode.Episode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := s.Channels[cfg.SwitchChannel]; !ok {
		return nil, fmt.Errorf("segment: session has no switch channel %q", cfg.SwitchChannel)
	}
	for i := 1; i < len(s.Timestamps); i++ {
		if s.Timestamps[i] < s.Timestamps[i-1] {
			return nil, fmt.Errorf("segment: timestamps decrease at index %d", i)
		}
	}

	episodes := make([]episode.Episode, 0)
	var cur *episode.Episode
	start := 0.0

	for i, t := range s.Timestamps {
		sw, hasSwitch := s.sample(cfg.SwitchChannel, i)

		if cur == nil {
			if !hasSwitch || sw >= cfg.Low {
				continue
			}
			e := episode.New()
			cur = &e
			start = t
		} else if hasSwitch && sw > cfg.High {
			episodes = append(episodes, *cur)
			cur = nil
			continue
		}

		cur.Timestamps = append(cur.Timestamps, t-start)
		for name := range s.Channels {
			v, ok := s.sample(name, i)
			if !ok {
				continue
			}
			if name == cfg.OffsetChannel {
				v = cfg.ReferenceLength - v
			}
			cur.Channels[name] = append(cur.Channels[name], v)
		}
	}

	return episodes, nil
}
