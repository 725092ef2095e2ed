package cli

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/report"
)

const (
	configBaseName = "annoscope"
	configFileName = configBaseName + ".yaml"
	envPrefix      = "ANNOSCOPE"

	sourcePathsKey     = "source.paths"
	sourceExcludeKey   = "source.exclude"
	sourceWorkersKey   = "source.workers"
	sourcePlatformKey  = "source.platform_kinds"
	modelFileKey       = "model.file"
	outputFormatKey    = "output.format"
	argumentsSourceKey = "search.arguments_source"
	cartesianSourceKey = "search.cartesian_source"
	serverAddressKey   = "server.address"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultServerAddress = "localhost:8080"
	defaultLogFilename   = ".annoscope.log"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
)

// Config holds the resolved CLI configuration
type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Model  ModelConfig  `mapstructure:"model"`
	Output OutputConfig `mapstructure:"output"`
	Search SearchConfig `mapstructure:"search"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// SourceConfig selects the Java source trees to load
type SourceConfig struct {
	Paths         []string `mapstructure:"paths"`
	Exclude       []string `mapstructure:"exclude"`
	Workers       int      `mapstructure:"workers"`
	PlatformKinds bool     `mapstructure:"platform_kinds"`
}

// ModelConfig selects a YAML model instead of Java sources
type ModelConfig struct {
	File string `mapstructure:"file"`
}

// OutputConfig controls result rendering
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// SearchConfig names the argument source kinds
type SearchConfig struct {
	ArgumentsSource string `mapstructure:"arguments_source"`
	CartesianSource string `mapstructure:"cartesian_source"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LogConfig configures the rotating log file
type LogConfig struct {
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	Verbose    bool   `mapstructure:"verbose"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// newViper creates the configuration registry with defaults and environment
// overrides
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(sourcePathsKey, []string{})
	v.SetDefault(sourceExcludeKey, []string{})
	v.SetDefault(sourceWorkersKey, 0)
	v.SetDefault(sourcePlatformKey, true)
	v.SetDefault(modelFileKey, "")
	v.SetDefault(outputFormatKey, string(report.FormatTable))
	v.SetDefault(argumentsSourceKey, "")
	v.SetDefault(cartesianSourceKey, "")
	v.SetDefault(serverAddressKey, defaultServerAddress)

	v.SetDefault(logFilenameKey, defaultLogFilename)
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logVerboseKey, false)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, true)
	return v
}

// readConfig reads the explicit config file, or annoscope.yaml from the
// working directory when present
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return nil
		}
		if file == "" && stderrors.Is(err, os.ErrNotExist) {
			return nil
		}
		name := file
		if name == "" {
			name = configFileName
		}
		return errors.WrapConfigurationError(name, "read", err)
	}
	return nil
}

// loadConfig decodes the merged flags, environment, file and defaults
func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.WrapConfigurationError(configFileName, "decode", err)
	}
	if _, err := report.ParseFormat(cfg.Output.Format); err != nil {
		return Config{}, err
	}
	if cfg.Source.Workers < 0 {
		return Config{}, errors.ConfigurationError(sourceWorkersKey, "must not be negative")
	}
	return cfg, nil
}

// bindFlag wires a Cobra flag to a Viper key so config and env values feed it
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, name, key string) {
	flag := flags.Lookup(name)
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag %q for config key %q not found", name, key))
		return
	}
	cobra.CheckErr(v.BindPFlag(key, flag))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "":
		return defaultLevel
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}
	return defaultLevel
}

// newLogger creates the slog logger writing to the rotating log file. Debug
// is enabled by verbose.
func newLogger(cfg LogConfig) *slog.Logger {
	path := strings.TrimSpace(cfg.Filename)
	if path == "" {
		path = defaultLogFilename
	}

	level := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}
