package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validCfg returns a fully-valid Config for mutation testing.
func validCfg() *Config {
	return &Config{
		Source: SourceConfig{Location: "productions.csv", Layout: "header"},
		Pipeline: PipelineConfig{
			Identity:    "title",
			LanePolicy:  "first_fit",
			LaneCount:   4,
			BufferYears: 1,
			Sort:        "insertion",
		},
		View:    ViewConfig{ZoomMinYears: 1, ZoomMaxYears: 100},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		API:     APIConfig{ListenAddr: ":8080"},
	}
}

func TestValidate_ValidConfigPasses(t *testing.T) {
	if err := validCfg().Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty location", func(c *Config) { c.Source.Location = "" }, "source.location must not be empty"},
		{"bad layout", func(c *Config) { c.Source.Layout = "xml" }, "source.layout must be one of"},
		{"bad identity", func(c *Config) { c.Pipeline.Identity = "opening" }, "pipeline.identity"},
		{"bad lane policy", func(c *Config) { c.Pipeline.LanePolicy = "best_fit" }, "pipeline.lane_policy"},
		{"zero lanes", func(c *Config) { c.Pipeline.LaneCount = 0 }, "pipeline.lane_count must be >= 1"},
		{"negative buffer", func(c *Config) { c.Pipeline.BufferYears = -1 }, "pipeline.buffer_years"},
		{"zero buffer", func(c *Config) { c.Pipeline.BufferYears = 0 }, "pipeline.buffer_years"},
		{"bad sort", func(c *Config) { c.Pipeline.Sort = "random" }, "pipeline.sort"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"empty listen", func(c *Config) { c.API.ListenAddr = "" }, "api.listen_addr"},
		{"bad neo4j uri", func(c *Config) { c.Neo4j.URI = "not a uri" }, "neo4j.uri"},
		{"inverted zoom", func(c *Config) { c.View.ZoomMinYears = 50; c.View.ZoomMaxYears = 10 }, "zoom_min_years"},
		{"neo4j without user", func(c *Config) { c.Neo4j.URI = "bolt://localhost:7687" }, "neo4j.username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCfg()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNeo4jConfig_StringMasksPassword(t *testing.T) {
	c := Neo4jConfig{URI: "bolt://localhost:7687", Username: "neo4j", Password: "supersecretpassword"}
	s := c.String()
	if strings.Contains(s, "supersecretpassword") {
		t.Fatalf("password leaked: %s", s)
	}
	assert.Contains(t, s, "supe****word")
	assert.True(t, c.Enabled())
	assert.False(t, Neo4jConfig{}.Enabled())
}

func TestAPIConfig_StringMasksToken(t *testing.T) {
	assert.Contains(t, APIConfig{AuthToken: "short"}.String(), "***")
}

func TestLoad_DefaultsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "productions.csv", cfg.Source.Location)
	assert.Equal(t, "title", cfg.Pipeline.Identity)
	assert.Equal(t, DefaultBufferYears, cfg.Pipeline.BufferYears)
	assert.Equal(t, []string{"*"}, cfg.API.AllowedOrigins)

	yaml := "source:\n  location: https://example.com/sheet.csv\n  layout: fixed\npipeline:\n  lane_policy: capacity\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("MARQUEE_PIPELINE_IDENTITY", "title_opening")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/sheet.csv", cfg.Source.Location)
	assert.Equal(t, "fixed", cfg.Source.Layout)
	assert.Equal(t, "capacity", cfg.Pipeline.LanePolicy)
	assert.Equal(t, "title_opening", cfg.Pipeline.Identity)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pipeline:\n  sort: random\n"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating config")
}
