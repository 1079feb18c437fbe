package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string   `yaml:"title"`
	Zoom  int      `yaml:"zoom"`
	Tags  []string `yaml:"tags"`
	Map   struct {
		Center []float64 `yaml:"center"`
		Zoom   int       `yaml:"zoom"`
	} `yaml:"map"`
}

type checked struct {
	Title string `yaml:"title"`
}

func (c *checked) Validate() error {
	if c.Title == "" {
		return errors.New("title required")
	}
	return nil
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("VIEWER_TITLE", "City map")
	p := write(t, t.TempDir(), "app.yaml", "title: ${VIEWER_TITLE}\nzoom: 4\n")

	var cfg sample
	require.NoError(t, Load(p, &cfg))
	assert.Equal(t, "City map", cfg.Title)
	assert.Equal(t, 4, cfg.Zoom)
}

func TestLoadValidates(t *testing.T) {
	p := write(t, t.TempDir(), "app.yaml", "other: 1\n")

	var cfg checked
	err := Load(p, &cfg)
	assert.ErrorContains(t, err, "title required")
}

func TestLoadMissing(t *testing.T) {
	var cfg sample
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMerged(t *testing.T) {
	dir := t.TempDir()
	base := write(t, dir, "default.yaml", "title: Default\ntags: [a, b]\nmap:\n  center: [1, 2]\n  zoom: 3\n")
	over := write(t, dir, "city.yaml", "title: City\ntags: [c]\nmap:\n  zoom: 9\n")

	var cfg sample
	require.NoError(t, LoadMerged(&cfg, base, over, filepath.Join(dir, "missing.yaml")))
	assert.Equal(t, "City", cfg.Title)
	assert.Equal(t, []string{"c"}, cfg.Tags)
	assert.Equal(t, []float64{1, 2}, cfg.Map.Center)
	assert.Equal(t, 9, cfg.Map.Zoom)
}

func TestLoadMergedNothingFound(t *testing.T) {
	var cfg sample
	err := LoadMerged(&cfg, filepath.Join(t.TempDir(), "a.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
