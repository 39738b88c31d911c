package main

import (
	"os"
	"sort"
	"time"

	"github.com/goccy/go-yaml"
)

// Report summarizes a publish run.
type Report struct {
	Generated time.Time          `yaml:"generated"`
	Provider  string             `yaml:"provider"`
	Version   string             `yaml:"version"`
	State     State              `yaml:"state"`
	Reached   State              `yaml:"reached"`
	Error     string             `yaml:"error,omitempty"`
	Platforms []PlatformArtifact `yaml:"platforms"`
}

func (p *Publisher) report(err error) Report {
	p.mu.Lock()
	published := make([]PlatformArtifact, len(p.published))
	copy(published, p.published)
	p.mu.Unlock()

	sort.SliceStable(published, func(i, j int) bool {
		return published[i].Filename < published[j].Filename
	})

	r := Report{
		Generated: time.Now().UTC(),
		Provider:  p.cfg.Provider.Namespace + "/" + p.cfg.Provider.Name,
		Version:   p.cfg.Version,
		State:     p.State(),
		Reached:   p.Reached(),
		Platforms: published,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func writeReportFile(name string, report Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}
