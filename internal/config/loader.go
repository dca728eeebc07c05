package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/verdigris-botanica/egress/internal/types"
)

// envVarPattern matches ${VAR_NAME} references in string values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML configuration at path, applies defaults for unset
// keys, interpolates ${ENV_VAR} references, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v, Default(DefaultHomeDir()))

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			"failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			"failed to unmarshal config", err)
	}

	interpolate(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the configuration at path, or returns defaults
// rooted at homeDir when no config file exists yet.
func LoadOrDefault(path, homeDir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default(homeDir)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// WriteDefault renders the default configuration as YAML at path,
// creating parent directories as needed. Used by first-run
// initialization; it refuses to overwrite an existing file.
func WriteDefault(path, homeDir string) error {
	if _, err := os.Stat(path); err == nil {
		return types.NewError(types.CONFIG_LOAD_FAILED,
			"config file already exists: "+path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED,
			"failed to create config directory", err)
	}

	data, err := yaml.Marshal(Default(homeDir))
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED,
			"failed to render default config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED,
			"failed to write config file", err)
	}

	return nil
}

// setDefaults registers the default value for every key so viper fills
// in anything the file omits.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("transmission.destination", d.Transmission.Destination)
	v.SetDefault("transmission.parallel_limit", d.Transmission.ParallelLimit)
	v.SetDefault("audit.log_dir", d.Audit.LogDir)
	v.SetDefault("audit.retention_days", d.Audit.RetentionDays)
	v.SetDefault("security.key_file", d.Security.KeyFile)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
}

// interpolate expands ${ENV_VAR} references in string-valued fields.
// Unset variables expand to the empty string, which validation then
// catches for required fields.
func interpolate(cfg *Config) {
	cfg.Transmission.Destination = expandEnv(cfg.Transmission.Destination)
	cfg.Audit.LogDir = expandEnv(cfg.Audit.LogDir)
	cfg.Security.KeyFile = expandEnv(cfg.Security.KeyFile)
}

func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
