// Package config loads client settings from config.yaml, TADA_* env
// vars and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idilsaglam/tada-remote/internal/controller"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	KeyBaseURL    = "base_url"
	KeyCSRFCookie = "csrf_cookie"
	KeyCSRFHeader = "csrf_header"
	KeyFilterMode = "filter_mode"
	KeyTimeout    = "timeout"
	KeyLogLevel   = "log_level"
	KeyTheme      = "theme"
)

const defaultConfigYAML = `# tada configuration

# Backend the client talks to. Use http://backend:8000 inside docker compose.
base_url: http://localhost:8000

# Cookie the server stores the anti-forgery token in, and the header it
# expects the token back in.
csrf_cookie: csrftoken
csrf_header: X-CSRFToken

# all: the list shows every item; status: only the selected tab's items.
filter_mode: all

timeout: 10s
log_level: warn
theme: classic
`

// Config is the resolved client configuration.
type Config struct {
	BaseURL    string
	CSRFCookie string
	CSRFHeader string
	FilterMode controller.FilterMode
	Timeout    time.Duration
	LogLevel   string
	Theme      string

	// Dir holds config.yaml and the credentials file.
	Dir string
	// File is the config file that was read, empty if none.
	File string
}

// Dir returns the configuration directory: $TADA_HOME, else
// $XDG_CONFIG_HOME/tada, else ~/.config/tada.
func Dir() (string, error) {
	if d := strings.TrimSpace(os.Getenv("TADA_HOME")); d != "" {
		return d, nil
	}
	if x := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); x != "" {
		return filepath.Join(x, "tada"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".config", "tada"), nil
}

// StateDir is where the TUI writes its log: $XDG_STATE_HOME/tada or
// ~/.local/state/tada.
func StateDir() (string, error) {
	if x := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); x != "" {
		return filepath.Join(x, "tada"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".local", "state", "tada"), nil
}

// Load resolves the configuration. When file is empty, config.yaml in Dir
// is used and created with defaults on first run. A missing file is not an
// error. Flags in fs named like the keys with dashes (base-url,
// log-level, ...) override file and env values when set.
func Load(file string, fs *pflag.FlagSet) (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault(KeyBaseURL, "http://localhost:8000")
	v.SetDefault(KeyCSRFCookie, "csrftoken")
	v.SetDefault(KeyCSRFHeader, "X-CSRFToken")
	v.SetDefault(KeyFilterMode, "all")
	v.SetDefault(KeyTimeout, "10s")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyTheme, "classic")

	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range []string{KeyBaseURL, KeyFilterMode, KeyLogLevel, KeyTheme, KeyTimeout} {
			if f := fs.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		if err := ensureDefaultConfigFile(dir); err != nil {
			return Config{}, fmt.Errorf("ensure default config: %w", err)
		}
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	mode, err := controller.ParseFilterMode(v.GetString(KeyFilterMode))
	if err != nil {
		return Config{}, err
	}
	timeout, err := time.ParseDuration(v.GetString(KeyTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("timeout: %w", err)
	}

	return Config{
		BaseURL:    strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		CSRFCookie: v.GetString(KeyCSRFCookie),
		CSRFHeader: v.GetString(KeyCSRFHeader),
		FilterMode: mode,
		Timeout:    timeout,
		LogLevel:   v.GetString(KeyLogLevel),
		Theme:      v.GetString(KeyTheme),
		Dir:        dir,
		File:       v.ConfigFileUsed(),
	}, nil
}

// ensureDefaultConfigFile writes the commented default config.yaml if dir
// has none yet.
func ensureDefaultConfigFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
