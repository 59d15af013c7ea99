package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackvity/log-analyzer/pkg/analyzer"
	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
)

const (
	EnvPrefix         = "LOGANALYZER"
	DefaultConfigName = "log-analyzer"
)

// flagBindings maps flag names onto the config keys they override.
// Negating flags (--no-trace, --no-progress) are applied after unmarshalling.
var flagBindings = []struct {
	flag string
	key  string
}{
	{"input", "input"},
	{"output", "output"},
	{"verbose", "verbose"},
	{"ignore", "ignore"},
	{"secondary-encoding", "secondaryEncoding"},
	{"summary-format", "summaryFormat"},
}

// LoadAndValidate loads configuration from all sources (defaults, file, profile, env, flags),
// validates the merged configuration, derives absolute paths, sets up the logger
// and injects the default decoder. Returns the populated Options struct or an error.
func LoadAndValidate(cfgFile, profileName, appVersion string, verbose bool, flags *pflag.FlagSet) (analyzer.Options, *slog.Logger, error) {
	var opts analyzer.Options
	v := viper.New()

	// Temporary logger for early loading errors
	tempLogHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	tempLogger := slog.New(tempLogHandler)

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			tempLogger.Error("Failed to get user home directory", slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			configFileUsed := cfgFile
			if configFileUsed == "" {
				configFileUsed = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", configFileUsed), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error reading config file '%s': %w", configFileUsed, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	// --- Apply Profile ---
	opts.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		if !v.IsSet(profileKey) {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			err := fmt.Errorf("profile '%s' not found in config file '%s'", profileName, configPath)
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		profileSettings := v.Sub(profileKey)
		if profileSettings == nil {
			err := fmt.Errorf("failed to load profile '%s' settings from config file '%s'", profileName, v.ConfigFileUsed())
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		if err := v.MergeConfigMap(profileSettings.AllSettings()); err != nil {
			tempLogger.Error("Error merging profile", slog.String("profile", profileName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	for _, binding := range flagBindings {
		flag := flags.Lookup(binding.flag)
		if flag == nil {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", binding.flag))
			continue
		}
		if err := v.BindPFlag(binding.key, flag); err != nil {
			tempLogger.Error("Error binding flag", slog.String("flag", binding.flag), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", binding.flag, err)
		}
	}

	// --- Unmarshal Final Configuration ---
	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// --- Explicitly Handle Flag Overrides for Booleans ---
	if verbose {
		opts.Verbose = true
	}
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("no-trace") {
		if noTrace, _ := flags.GetBool("no-trace"); noTrace {
			opts.TraceEnabled = false
		}
	}
	if flags.Changed("no-progress") {
		if noProgress, _ := flags.GetBool("no-progress"); noProgress {
			opts.ProgressEnabled = false
		}
	}
	opts.SummaryFormat = analyzer.SummaryFormat(strings.ToLower(strings.TrimSpace(string(opts.SummaryFormat))))

	// --- Setup Final Logger ---
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateAndDeriveOptions(&opts, logger); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("profile", opts.ProfileName),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	// --- Core Paths ---
	v.SetDefault("input", analyzer.DefaultInputPath)
	v.SetDefault("output", analyzer.DefaultOutputPath)

	// --- Behavior & Control ---
	v.SetDefault("verbose", analyzer.DefaultVerbose)
	v.SetDefault("ignore", []string{})
	v.SetDefault("secondaryEncoding", analyzer.DefaultSecondaryEncoding)
	v.SetDefault("trace", analyzer.DefaultTraceEnabled)
	v.SetDefault("progress", analyzer.DefaultProgressEnabled)
	v.SetDefault("summaryFormat", string(analyzer.DefaultSummaryFormat))
}

// isValidEnumValue checks if a given string value is present in a slice of allowed enum values.
func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

// validateAndDeriveOptions performs semantic validation on the populated Options struct
// and injects the default decoder. It wraps errors with analyzer.ErrConfigValidation.
//
// The input directory is not checked for existence here; a missing directory is
// the Engine's fatal error and must surface as an analysis failure.
func validateAndDeriveOptions(opts *analyzer.Options, logger *slog.Logger) error {
	// === Path Validations ===
	if strings.TrimSpace(opts.InputPath) == "" {
		err := fmt.Errorf("%w: input path is required (-i, --input)", analyzer.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "input"))
		return err
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		err := fmt.Errorf("%w: output path is required (-o, --output)", analyzer.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "output"))
		return err
	}
	absOutput, err := filepath.Abs(opts.OutputPath)
	if err != nil {
		err = fmt.Errorf("%w: cannot resolve absolute output path '%s': %w", analyzer.ErrConfigValidation, opts.OutputPath, err)
		logger.Error(err.Error(), slog.String("key", "output"), slog.String("value", opts.OutputPath))
		return err
	}
	opts.OutputPath = absOutput
	logger.Debug("Resolved output path", slog.String("path", opts.OutputPath))

	// === Enum String Validations ===
	allowedSummaryFormat := []analyzer.SummaryFormat{analyzer.SummaryFormatNone, analyzer.SummaryFormatText, analyzer.SummaryFormatJSON}
	if !isValidEnumValue(opts.SummaryFormat, allowedSummaryFormat) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'summaryFormat' (flag --summary-format). Allowed: %v", analyzer.ErrConfigValidation, opts.SummaryFormat, allowedSummaryFormat)
		logger.Error(err.Error(), slog.String("key", "summaryFormat"), slog.String("value", string(opts.SummaryFormat)))
		return err
	}

	// === Inject Default Dependencies ===
	if opts.Decoder == nil {
		decoder, err := encoding.NewTwoStageDecoder(opts.SecondaryEncoding)
		if err != nil {
			err = fmt.Errorf("%w: invalid value '%s' for key 'secondaryEncoding' (flag --secondary-encoding): %w", analyzer.ErrConfigValidation, opts.SecondaryEncoding, err)
			logger.Error(err.Error(), slog.String("key", "secondaryEncoding"), slog.String("value", opts.SecondaryEncoding))
			return err
		}
		opts.Decoder = decoder
	}

	logger.Debug("Final derived settings validated",
		slog.String("input", opts.InputPath),
		slog.String("secondaryEncoding", opts.SecondaryEncoding),
		slog.Int("ignorePatterns", len(opts.IgnorePatterns)),
		slog.Bool("trace", opts.TraceEnabled),
		slog.Bool("progress", opts.ProgressEnabled),
		slog.String("summaryFormat", string(opts.SummaryFormat)),
	)
	return nil
}
