package cli

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jinzhu/inflection"
	"github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/mickamy/capsql"
	"github.com/mickamy/capsql/internal/sqlfmt"
	"github.com/mickamy/capsql/pgxtrace"
	"github.com/mickamy/capsql/sqlhook"
)

func newRunCmd(a *app) *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "run [script.sql]",
		Short: "Execute a SQL script and print the captured statements",
		Long: `Execute every statement of a SQL script (a file, or stdin when omitted or "-")
inside a capture session, then print the statements the driver received.

Flags can also be set with CAPSQL_* environment variables or a capsql.yaml file.`,
		Args: cobra.MaximumNArgs(1),
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "Config file (default ./capsql.yaml)")
	f.String("driver", DriverSQLite, "Database driver: sqlite3, pgx or pgxpool")
	f.String("dsn", ":memory:", "Data source name")
	f.Bool("pretty", true, "Reindent captured statements")
	f.String("color", ColorAuto, "Highlight statements: auto, always or never")
	f.Bool("show-params", false, "Append bound parameters to each statement")
	f.Bool("echo", false, "Echo statements to stderr as they are executed")
	f.Bool("log", false, "Log statements as they are executed")

	v, bindErr := newViper(f)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		cfg, err := loadConfig(v, cfgFile)
		if err != nil {
			return err
		}
		script, err := readScript(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		logger := a.logger
		if logger == nil {
			logger = slog.Default()
		}
		return run(cmd.Context(), cfg, script, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	}
	return cmd
}

func readScript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(b), nil
}

// target is an open database reached through a capture binding.
type target struct {
	src   capsql.Source
	exec  func(ctx context.Context, q string) error
	close func()
}

func open(ctx context.Context, cfg Config) (*target, error) {
	switch cfg.Driver {
	case DriverPgxPool:
		pcfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dsn: %w", err)
		}
		tracer := pgxtrace.New(pcfg.ConnConfig.Tracer)
		pcfg.ConnConfig.Tracer = tracer
		pool, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		return &target{
			src: tracer,
			exec: func(ctx context.Context, q string) error {
				_, err := pool.Exec(ctx, q)
				return err
			},
			close: pool.Close,
		}, nil
	default:
		var d driver.Driver = &sqlite3.SQLiteDriver{}
		if cfg.Driver == DriverPgx {
			d = stdlib.GetDefaultDriver()
		}
		src := sqlhook.New(d)
		db := src.OpenDB(cfg.DSN)
		// one connection keeps session state (and :memory: databases) across statements
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		return &target{
			src: src,
			exec: func(ctx context.Context, q string) error {
				_, err := db.ExecContext(ctx, q)
				return err
			},
			close: func() { _ = db.Close() },
		}, nil
	}
}

func run(ctx context.Context, cfg Config, script string, stdout, stderr io.Writer, logger *slog.Logger) error {
	stmts, err := sqlfmt.Split(script)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}
	logger.Debug("parsed script", "statements", len(stmts), "driver", cfg.Driver)

	t, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer t.close()

	e := capsql.New(t.src,
		capsql.WithEcho(cfg.Echo),
		capsql.WithLog(cfg.Log),
		capsql.WithShowParams(cfg.ShowParams),
		capsql.WithPretty(cfg.Pretty),
		capsql.WithColor(useColor(cfg.Color, stderr)),
		capsql.WithLogger(logger),
		capsql.WithErrorStream(stderr),
	)
	defer func() { _ = e.Close() }()

	s, err := e.Capture(func(*capsql.Session) error {
		for i, q := range stmts {
			if err := t.exec(ctx, q); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if s != nil {
		report(stdout, s, capsql.FormatOptions{
			Pretty:     cfg.Pretty,
			Color:      useColor(cfg.Color, stdout),
			ShowParams: cfg.ShowParams,
		})
	}
	return err
}

func report(w io.Writer, s *capsql.Session, opts capsql.FormatOptions) {
	recs := s.Records()
	for _, r := range recs {
		fmt.Fprintf(w, "%s\n\n", capsql.Format(r.SQL, r.Args, opts))
	}
	noun := "statement"
	if len(recs) != 1 {
		noun = inflection.Plural(noun)
	}
	fmt.Fprintf(w, "-- %d %s captured\n", len(recs), noun)
}
