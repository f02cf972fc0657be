package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultLaneCount is the number of lanes used by the round_robin policy.
	DefaultLaneCount = 4

	// DefaultBufferYears is the longest_first padding added to each run end.
	DefaultBufferYears = 1

	// DefaultZoomMinYears and DefaultZoomMaxYears bound the renderer's zoom.
	DefaultZoomMinYears = 1
	DefaultZoomMaxYears = 100
)

// Config holds all configuration for marquee.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	View     ViewConfig     `mapstructure:"view"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// SourceConfig says where the production sheet lives and how it is laid out.
type SourceConfig struct {
	Location string `mapstructure:"location" validate:"required"`
	Layout   string `mapstructure:"layout" validate:"oneof=header fixed"`
}

// PipelineConfig selects the grouping, ordering and lane policies.
type PipelineConfig struct {
	Identity    string `mapstructure:"identity" validate:"oneof=title title_opening"`
	LanePolicy  string `mapstructure:"lane_policy" validate:"oneof=first_fit longest_first round_robin capacity"`
	LaneCount   int    `mapstructure:"lane_count" validate:"gte=1"`
	BufferYears int    `mapstructure:"buffer_years" validate:"gte=1,lte=50"`
	Sort        string `mapstructure:"sort" validate:"oneof=insertion opening title"`
}

// ViewConfig is passed through to the renderer untouched.
type ViewConfig struct {
	ZoomMinYears int    `mapstructure:"zoom_min_years" json:"zoom_min_years" validate:"gte=1"`
	ZoomMaxYears int    `mapstructure:"zoom_max_years" json:"zoom_max_years" validate:"gte=1"`
	WindowStart  string `mapstructure:"window_start" json:"window_start,omitempty"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr" validate:"required"`
	AuthToken      string   `mapstructure:"auth_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// String masks the auth token.
func (c APIConfig) String() string {
	return fmt.Sprintf("APIConfig{ListenAddr:%s, AuthToken:%s, AllowedOrigins:%v}", c.ListenAddr, maskSecret(c.AuthToken), c.AllowedOrigins)
}

// Neo4jConfig holds graph store connection settings. An empty URI disables
// the graph store.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri" validate:"omitempty,uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// String returns a safe representation with the password masked.
func (c Neo4jConfig) String() string {
	return fmt.Sprintf("Neo4jConfig{URI:%s, Username:%s, Password:%s, Database:%s}", c.URI, c.Username, maskSecret(c.Password), c.Database)
}

// Enabled reports whether a graph store is configured.
func (c Neo4jConfig) Enabled() bool {
	return c.URI != ""
}

// maskSecret shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskSecret(s string) string {
	const visible = 4
	if s == "" {
		return ""
	}
	if len(s) <= visible*2 {
		return "***"
	}
	return s[:visible] + "****" + s[len(s)-visible:]
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("source.location", "productions.csv")
	v.SetDefault("source.layout", "header")

	v.SetDefault("pipeline.identity", "title")
	v.SetDefault("pipeline.lane_policy", "first_fit")
	v.SetDefault("pipeline.lane_count", DefaultLaneCount)
	v.SetDefault("pipeline.buffer_years", DefaultBufferYears)
	v.SetDefault("pipeline.sort", "insertion")

	v.SetDefault("view.zoom_min_years", DefaultZoomMinYears)
	v.SetDefault("view.zoom_max_years", DefaultZoomMaxYears)
	v.SetDefault("view.window_start", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")
	v.SetDefault("api.allowed_origins", []string{"*"})

	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".marquee"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("source.location", "MARQUEE_SOURCE_LOCATION")
	_ = v.BindEnv("api.auth_token", "MARQUEE_API_AUTH_TOKEN")
	_ = v.BindEnv("neo4j.uri", "MARQUEE_NEO4J_URI", "NEO4J_URI")
	_ = v.BindEnv("neo4j.password", "MARQUEE_NEO4J_PASSWORD", "NEO4J_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK: use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// validate reports field errors by their config key.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("mapstructure"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}()

// Validate checks that configuration fields are set and consistent.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if c.View.ZoomMinYears > c.View.ZoomMaxYears {
		return fmt.Errorf("view.zoom_min_years (%d) must not exceed view.zoom_max_years (%d)", c.View.ZoomMinYears, c.View.ZoomMaxYears)
	}
	if c.Neo4j.Enabled() && c.Neo4j.Username == "" {
		return fmt.Errorf("neo4j.username must not be empty when neo4j.uri is set")
	}
	return nil
}

// fieldMessage renders a validator error as "section.key must ...".
func fieldMessage(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return key + " must not be empty"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", key, fe.Param())
	case "uri":
		return key + " must be a valid URI"
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
