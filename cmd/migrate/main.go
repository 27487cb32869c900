// Command migrate manages the ERP sync schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/config"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/logger"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/migration"
	"github.com/rahulmuralitechnology/cartzilla-sub003/migrations"
)

const usage = `ERP sync schema migration tool

Usage:
  migrate [flags] <command> [argument]

Commands:
  up                apply all pending migrations
  down              roll back all migrations
  step <n>          apply n migrations, negative n rolls back
  version           show the applied version
  force <version>   mark a version as applied and clear the dirty flag
  list              list the available migrations

Flags:
  -path string       migrations directory (default: built into the binary)
  -log-level string  debug, info, warn or error (default: info)

Database settings come from config.toml or ERP_DATABASE_* variables.`

// command runs against an open migrator; arg is the optional second argument
type command struct {
	needsArg bool
	run      func(m *migration.Migrator, arg int, log *zap.Logger) error
}

var commands = map[string]command{
	"up":   {run: func(m *migration.Migrator, _ int, _ *zap.Logger) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ int, _ *zap.Logger) error { return m.Down() }},
	"step": {needsArg: true, run: func(m *migration.Migrator, n int, _ *zap.Logger) error {
		return m.Steps(n)
	}},
	"force": {needsArg: true, run: func(m *migration.Migrator, v int, _ *zap.Logger) error {
		return m.Force(v)
	}},
	"version": {run: func(m *migration.Migrator, _ int, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
}

func main() {
	dir := flag.String("path", "", "Migrations directory")
	level := flag.String("log-level", "info", "Log level")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(flag.Arg(0), flag.Arg(1), *dir, log); err != nil {
		log.Error("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

func run(name, rawArg, dir string, log *zap.Logger) error {
	if name == "list" {
		return list(dir)
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintln(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", name)
	}
	var arg int
	if cmd.needsArg {
		n, err := strconv.Atoi(rawArg)
		if err != nil {
			return fmt.Errorf("%s needs an integer argument, got %q", name, rawArg)
		}
		arg = n
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(db, dir, log)
	} else {
		m, err = migration.New(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return cmd.run(m, arg, log)
}

// list reads only the migration source, no database needed
func list(dir string) error {
	var src fs.FS = migrations.FS
	if dir != "" {
		src = os.DirFS(dir)
	}
	versions, err := migration.ListVersions(src)
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Println(v)
	}
	return nil
}
