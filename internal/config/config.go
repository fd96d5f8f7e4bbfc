package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOutputName  = "files"
	DefaultHTTPTimeout = 120 * time.Second
)

// Config holds all configuration for the application
type Config struct {
	OutputName      string
	HTTPTimeout     time.Duration
	LogPath         string
	LogLevel        string
	LedgerPath      string
	SkipInvalidLogs bool

	// environment values that failed to parse, keyed by variable name
	parseErrors map[string]string
}

// Load returns a Config struct populated from the environment. Values that do
// not parse fall back to their defaults and are reported by Validate unless
// the field is overridden first.
func Load() *Config {
	c := &Config{parseErrors: map[string]string{}}

	c.OutputName = getEnvOrDefault("OUTPUT_DIR_NAME", DefaultOutputName)

	timeout, err := getEnvAsIntOrDefault("HTTP_TIMEOUT_SECONDS", int(DefaultHTTPTimeout/time.Second))
	if err != nil {
		c.parseErrors["HTTP_TIMEOUT_SECONDS"] = err.Error()
	}
	c.HTTPTimeout = time.Duration(timeout) * time.Second

	c.SkipInvalidLogs, err = getEnvAsBoolOrDefault("SKIP_INVALID_LOGS", false)
	if err != nil {
		c.parseErrors["SKIP_INVALID_LOGS"] = err.Error()
	}

	// Optional; empty disables the feature
	c.LogPath = getEnvOrDefault("LOG_PATH", "")
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")
	c.LedgerPath = getEnvOrDefault("LEDGER_PATH", "")

	return c
}

// Override marks the field read from the environment variable key as set by
// other means, dropping any parse error recorded for it.
func (c *Config) Override(key string) {
	delete(c.parseErrors, key)
}

// Validate checks the final values, after any command line overrides.
func (c *Config) Validate() error {
	var problems []string

	keys := make([]string, 0, len(c.parseErrors))
	for k := range c.parseErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		problems = append(problems, c.parseErrors[k])
	}

	if err := validateOutputName(c.OutputName); err != nil {
		problems = append(problems, err.Error())
	}

	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, ", "))
	}
	return nil
}

// validateOutputName accepts relative folder names, nested or not, that stay
// inside the channel directory. "." is refused because downloaded .json files
// would be read back as message logs on the next run.
func validateOutputName(name string) error {
	if name == "" {
		return fmt.Errorf("output folder name must not be empty")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return fmt.Errorf("output folder name %q must be relative", name)
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return fmt.Errorf("output folder name %q must stay inside the channel directory", name)
		}
	}
	if filepath.Clean(name) == "." {
		return fmt.Errorf("output folder name %q must name a subfolder", name)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsIntOrDefault(key string, def int) (int, error) {
	v := getEnvOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvAsBoolOrDefault(key string, def bool) (bool, error) {
	v := getEnvOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
