// Package config loads pydocmd's settings.
//
// Values are layered, later sources winning: built-in defaults, the
// [tool.pydocmd] table of pyproject.toml, a .pydocmd.{yaml,yml,toml,json}
// file (or the file named by --config), PYDOCMD_* environment variables and
// finally command line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "PYDOCMD"

// ErrInvalidStyle is returned for an unknown docstring style.
var ErrInvalidStyle = errors.New("invalid docstring style")

// Config is the complete set of generation settings.
type Config struct {
	OutputDir         string   `mapstructure:"output-dir"`
	DocstringStyle    string   `mapstructure:"docstring-style"`
	AnchorExtend      bool     `mapstructure:"anchor-extend"`
	ExcludeModuleName bool     `mapstructure:"exclude-module-name"`
	Overwrite         bool     `mapstructure:"overwrite"`
	IgnoreData        bool     `mapstructure:"ignore-data"`
	InitFileName      string   `mapstructure:"init-file-name"`
	SearchPath        []string `mapstructure:"search-path"`
	SortMembers       bool     `mapstructure:"sort-members"`
	Index             bool     `mapstructure:"index"`
	Jobs              int      `mapstructure:"jobs"`
	LogLevel          string   `mapstructure:"log-level"`
	LogFormat         string   `mapstructure:"log-format"`
	Report            string   `mapstructure:"report"`

	// Style is DocstringStyle resolved by Validate.
	Style docstring.Style `mapstructure:"-"`
	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		OutputDir:      "doc",
		DocstringStyle: string(docstring.Auto),
		InitFileName:   outpath.DefaultInitFileName,
		SearchPath:     []string{"."},
		Jobs:           runtime.NumCPU(),
		LogLevel:       "info",
		LogFormat:      "text",
		Style:          docstring.Auto,
	}
}

// RegisterFlags defines one flag per setting, plus --config.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "read settings from this file instead of .pydocmd.*")
	fs.StringP("output-dir", "o", d.OutputDir, `directory to write documents to ("-" prints to stdout)`)
	fs.String("docstring-style", d.DocstringStyle, "docstring convention: auto, google, numpy, rest or epydoc")
	fs.Bool("anchor-extend", d.AnchorExtend, "append {#anchor} attributes to headings")
	fs.Bool("exclude-module-name", d.ExcludeModuleName, "drop the root module name from output paths")
	fs.Bool("overwrite", d.Overwrite, "replace documents that already exist")
	fs.Bool("ignore-data", d.IgnoreData, "do not document module and class attributes")
	fs.String("init-file-name", d.InitFileName, "document name used for packages")
	fs.StringSliceP("search-path", "p", d.SearchPath, "directories to look modules up in")
	fs.Bool("sort-members", d.SortMembers, "order members by name instead of source order")
	fs.Bool("index", d.Index, "write a table of contents of the requested modules at the output root")
	fs.Int("jobs", d.Jobs, "number of files parsed in parallel")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("report", d.Report, `write diagnostics as YAML to this file ("-" for stdout)`)
}

// Load reads the configuration for the project in dir. flags may be nil.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("output-dir", d.OutputDir)
	v.SetDefault("docstring-style", d.DocstringStyle)
	v.SetDefault("anchor-extend", d.AnchorExtend)
	v.SetDefault("exclude-module-name", d.ExcludeModuleName)
	v.SetDefault("overwrite", d.Overwrite)
	v.SetDefault("ignore-data", d.IgnoreData)
	v.SetDefault("init-file-name", d.InitFileName)
	v.SetDefault("search-path", d.SearchPath)
	v.SetDefault("sort-members", d.SortMembers)
	v.SetDefault("index", d.Index)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("report", d.Report)
	v.SetDefault("config", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "bind flags")
		}
	}

	table, err := pyproject(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return nil, err
	}
	if len(table) > 0 {
		if err := v.MergeConfigMap(table); err != nil {
			return nil, errors.Wrap(err, "merge pyproject.toml")
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	} else {
		v.SetConfigName(".pydocmd")
		v.AddConfigPath(dir)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// pyproject returns the [tool.pydocmd] table of a pyproject.toml file, with
// underscores in keys read as dashes. A missing file yields nil.
func pyproject(path string) (map[string]any, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var doc struct {
		Tool struct {
			Pydocmd map[string]any `toml:"pydocmd"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	table := make(map[string]any, len(doc.Tool.Pydocmd))
	for k, val := range doc.Tool.Pydocmd {
		table[strings.ReplaceAll(strings.ToLower(k), "_", "-")] = val
	}
	return table, nil
}

// Validate checks the configuration and resolves Style.
func (c *Config) Validate() error {
	style, err := docstring.ParseStyle(c.DocstringStyle)
	if err != nil {
		return &ConfigError{Field: "docstring-style", Message: err.Error(), Err: ErrInvalidStyle}
	}
	c.Style = style
	if c.Jobs <= 0 {
		return &ConfigError{Field: "jobs", Message: "must be positive"}
	}
	if c.OutputDir == "" {
		return &ConfigError{Field: "output-dir", Message: "must not be empty"}
	}
	if c.InitFileName == "" || strings.ContainsAny(c.InitFileName, `/\`) {
		return &ConfigError{Field: "init-file-name", Message: "must be a plain file name"}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ConfigError{Field: "log-format", Message: "must be text or json"}
	}
	return nil
}

// ConfigError represents an invalid setting.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
