package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/smasher164/pyscc/parser"
	"github.com/smasher164/pyscc/types"
	"github.com/spf13/cobra"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	// Strict turns on every optional check.
	Strict           bool
	StrictConditions bool
	CheckReturns     bool
	// Trace prints the parser and inferrer traces to stderr.
	Trace    bool
	NoColor  bool
	LogLevel slog.Level
}

func DefaultConfig() Config {
	return Config{LogLevel: slog.LevelWarn}
}

const (
	envStrict           = "PYSCC_STRICT"
	envStrictConditions = "PYSCC_STRICT_CONDITIONS"
	envCheckReturns     = "PYSCC_CHECK_RETURNS"
	envTrace            = "PYSCC_TRACE"
	envLogLevel         = "PYSCC_LOG_LEVEL"
	envNoColor          = "NO_COLOR"
)

// LoadConfig starts from the defaults, loads envfile into the environment
// if it exists, and then reads the environment. Variables that are already
// set take precedence over the file.
func LoadConfig(envfile string) (Config, error) {
	conf := DefaultConfig()
	if envfile != "" {
		if err := godotenv.Load(envfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return conf, fmt.Errorf("loading %s: %w", envfile, err)
		}
	}
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{envStrict, &conf.Strict},
		{envStrictConditions, &conf.StrictConditions},
		{envCheckReturns, &conf.CheckReturns},
		{envTrace, &conf.Trace},
	} {
		if err := lookupBool(b.name, b.dst); err != nil {
			return conf, err
		}
	}
	if v, ok := os.LookupEnv(envLogLevel); ok && v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return conf, fmt.Errorf("%s: %w", envLogLevel, err)
		}
		conf.LogLevel = level
	}
	// https://no-color.org: any non-empty value disables color.
	if os.Getenv(envNoColor) != "" {
		conf.NoColor = true
	}
	return conf, nil
}

func lookupBool(name string, dst *bool) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	*dst = b
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// applyFlags overrides conf with the persistent flags the user set.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for _, b := range []struct {
		name string
		dst  *bool
	}{
		{"strict", &c.Strict},
		{"strict-conditions", &c.StrictConditions},
		{"check-returns", &c.CheckReturns},
		{"trace", &c.Trace},
		{"no-color", &c.NoColor},
	} {
		if !flags.Changed(b.name) {
			continue
		}
		v, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = v
	}
	if flags.Changed("log-level") {
		s, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		level, err := parseLogLevel(s)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		c.LogLevel = level
	}
	return nil
}

// InferOptions maps the configuration to inferrer options. trace receives
// the inference trace when tracing is on.
func (c Config) InferOptions(trace io.Writer) []types.Option {
	opts := []types.Option{
		types.WithStrictConditions(c.Strict || c.StrictConditions),
		types.WithCheckReturns(c.Strict || c.CheckReturns),
	}
	if c.Trace && trace != nil {
		opts = append(opts, types.WithTrace(trace))
	}
	return opts
}

func (c Config) ParseOptions(trace io.Writer) []parser.Option {
	if c.Trace && trace != nil {
		return []parser.Option{parser.WithTrace(trace)}
	}
	return nil
}
