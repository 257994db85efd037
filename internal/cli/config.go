package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Supported drivers.
const (
	DriverSQLite  = "sqlite3" // database/sql + mattn/go-sqlite3 through sqlhook
	DriverPgx     = "pgx"     // database/sql + pgx stdlib through sqlhook
	DriverPgxPool = "pgxpool" // native pgx pool through pgxtrace
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the resolved configuration of the run command. Values come from
// flags, CAPSQL_* environment variables and an optional capsql.yaml, in that
// order of precedence.
type Config struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	Pretty     bool   `mapstructure:"pretty"`
	Color      string `mapstructure:"color"`
	ShowParams bool   `mapstructure:"show-params"`
	Echo       bool   `mapstructure:"echo"`
	Log        bool   `mapstructure:"log"`
}

func (c Config) validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPgx, DriverPgxPool:
	default:
		return fmt.Errorf("unsupported driver %q (want %s, %s or %s)", c.Driver, DriverSQLite, DriverPgx, DriverPgxPool)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want %s, %s or %s)", c.Color, ColorAuto, ColorAlways, ColorNever)
	}
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	return nil
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("CAPSQL")
	// CAPSQL_SHOW_PARAMS for show-params
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("capsql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/capsql")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// useColor resolves a color mode for output written to w.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if t := os.Getenv("TERM"); t == "" || t == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
