package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/grizzly-cli/internal/reconcile"
)

// Config holds the full application configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Clean     CleanConfig     `yaml:"clean" mapstructure:"clean"`
	Aggregate AggregateConfig `yaml:"aggregate" mapstructure:"aggregate"`
	Spatial   SpatialConfig   `yaml:"spatial" mapstructure:"spatial"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the two tabular datasets. A file path, when set,
// is read instead of downloading the URL.
type SourcesConfig struct {
	MortalityURL   string `yaml:"mortality_url" mapstructure:"mortality_url"`
	PopulationURL  string `yaml:"population_url" mapstructure:"population_url"`
	MortalityFile  string `yaml:"mortality_file" mapstructure:"mortality_file"`
	PopulationFile string `yaml:"population_file" mapstructure:"population_file"`
}

// FetchConfig configures the HTTP client.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// CleanConfig holds the column conventions of the cleaning stage.
type CleanConfig struct {
	UnusedColumnPattern string `yaml:"unused_column_pattern" mapstructure:"unused_column_pattern"`
	AgeColumn           string `yaml:"age_column" mapstructure:"age_column"`
	AgeSeparator        string `yaml:"age_separator" mapstructure:"age_separator"`
	NotesColumn         string `yaml:"notes_column" mapstructure:"notes_column"`
	NotesRows           int    `yaml:"notes_rows" mapstructure:"notes_rows"`
	NotesSeparator      string `yaml:"notes_separator" mapstructure:"notes_separator"`
}

// AggregateConfig names the population columns that are grouped and summed.
type AggregateConfig struct {
	GroupColumn    string  `yaml:"group_column" mapstructure:"group_column"`
	EstimateColumn string  `yaml:"estimate_column" mapstructure:"estimate_column"`
	AreaColumn     string  `yaml:"area_column" mapstructure:"area_column"`
	Scale          float64 `yaml:"scale" mapstructure:"scale"`
}

// SpatialConfig locates the manually downloaded boundary bundle.
type SpatialConfig struct {
	ArchivePath  string  `yaml:"archive_path" mapstructure:"archive_path"`
	Layer        string  `yaml:"layer" mapstructure:"layer"`
	NameField    string  `yaml:"name_field" mapstructure:"name_field"`
	VersionField string  `yaml:"version_field" mapstructure:"version_field"`
	Version      float64 `yaml:"version" mapstructure:"version"`
}

// ReconcileConfig holds the label substitution table and mismatch policy.
type ReconcileConfig struct {
	Substitutions     []reconcile.Substitution `yaml:"substitutions" mapstructure:"substitutions"`
	SubstitutionsFile string                   `yaml:"substitutions_file" mapstructure:"substitutions_file"`
	OnMismatch        string                   `yaml:"on_mismatch" mapstructure:"on_mismatch"`
}

// RenderConfig configures the choropleth image.
type RenderConfig struct {
	Title        string  `yaml:"title" mapstructure:"title"`
	WidthInches  float64 `yaml:"width_inches" mapstructure:"width_inches"`
	LegendInches float64 `yaml:"legend_inches" mapstructure:"legend_inches"`
	Projection   string  `yaml:"projection" mapstructure:"projection"`
	Output       string  `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for an optional config.yaml in the working directory; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("GRIZZLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.mortality_url", "https://catalogue.data.gov.bc.ca/dataset/history-of-grizzly-bear-mortalities/resource/grizzly_bear_mortality_history.csv")
	v.SetDefault("sources.population_url", "https://catalogue.data.gov.bc.ca/dataset/grizzly-bear-population-estimates/resource/grizzly_bear_population_estimates_2012.csv")
	v.SetDefault("sources.mortality_file", "")
	v.SetDefault("sources.population_file", "")
	v.SetDefault("fetch.user_agent", "grizzly-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 1)
	v.SetDefault("clean.unused_column_pattern", `^(X\d*|\.\.\.\d+)?$`)
	v.SetDefault("clean.age_column", "AGE_CLASS")
	v.SetDefault("clean.age_separator", "-")
	v.SetDefault("clean.notes_column", "Notes")
	v.SetDefault("clean.notes_rows", 5)
	v.SetDefault("clean.notes_separator", "; ")
	v.SetDefault("aggregate.group_column", "GBPU")
	v.SetDefault("aggregate.estimate_column", "Estimate")
	v.SetDefault("aggregate.area_column", "Total_Area")
	v.SetDefault("aggregate.scale", 1000)
	v.SetDefault("spatial.archive_path", "data/GBPU_BC_polygon.zip")
	v.SetDefault("spatial.layer", "GBPU_BC_polygon")
	v.SetDefault("spatial.name_field", "GBPU_NAME")
	v.SetDefault("spatial.version_field", "GBPU_VERS")
	v.SetDefault("spatial.version", 2012)
	v.SetDefault("reconcile.substitutions", reconcile.DefaultSubstitutions())
	v.SetDefault("reconcile.substitutions_file", "")
	v.SetDefault("reconcile.on_mismatch", string(reconcile.PolicyFail))
	v.SetDefault("render.title", "Grizzly bear population density by GBPU, 2012")
	v.SetDefault("render.width_inches", 8)
	v.SetDefault("render.legend_inches", 0.9)
	v.SetDefault("render.projection", "identity")
	v.SetDefault("render.output", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Reconcile.SubstitutionsFile != "" {
		subs, err := LoadSubstitutions(cfg.Reconcile.SubstitutionsFile)
		if err != nil {
			return nil, err
		}
		cfg.Reconcile.Substitutions = subs
	}

	return &cfg, nil
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	var errs []string

	if c.Sources.MortalityURL == "" && c.Sources.MortalityFile == "" {
		errs = append(errs, "sources.mortality_url or sources.mortality_file is required")
	}
	if c.Sources.PopulationURL == "" && c.Sources.PopulationFile == "" {
		errs = append(errs, "sources.population_url or sources.population_file is required")
	}
	if c.Spatial.ArchivePath == "" {
		errs = append(errs, "spatial.archive_path is required")
	}
	if c.Fetch.MaxRetries < 1 {
		errs = append(errs, "fetch.max_retries must be >= 1")
	}
	if c.Clean.NotesRows < 0 {
		errs = append(errs, "clean.notes_rows must be >= 0")
	}
	if _, err := reconcile.ParsePolicy(c.Reconcile.OnMismatch); err != nil {
		errs = append(errs, fmt.Sprintf("reconcile.on_mismatch must be %q or %q", reconcile.PolicyFail, reconcile.PolicyDrop))
	}
	for i, s := range c.Reconcile.Substitutions {
		if strings.TrimSpace(s.From) == "" || strings.TrimSpace(s.To) == "" {
			errs = append(errs, fmt.Sprintf("reconcile.substitutions[%d] needs both from and to", i))
		}
	}
	if c.Render.WidthInches <= 0 {
		errs = append(errs, "render.width_inches must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadSubstitutions reads a label substitution table from a YAML file of
// the form:
//
//	substitutions:
//	  - from: Central Purcells
//	    to: Central-South Purcells
func LoadSubstitutions(path string) ([]reconcile.Substitution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read substitutions %s", path)
	}

	var wrapper struct {
		Substitutions []reconcile.Substitution `yaml:"substitutions"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "config: parse substitutions")
	}
	return wrapper.Substitutions, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
