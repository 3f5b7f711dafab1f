package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/migrate"
)

type options struct {
	service string
	command string
	dir     string
	name    string
	version string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.service, "service", config.ServiceCatalog, "service whose database to migrate: catalog|cart")
	flag.StringVar(&opts.command, "cmd", "up", "up|down|status|reset|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory; empty uses the set embedded for -service")
	flag.StringVar(&opts.name, "name", "", "migration name, for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS), for -cmd=version")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.command, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// create and validate touch files only, so they need no config
	switch opts.command {
	case "create":
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(opts.migrationsDir(), opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := opts.validate(); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	case migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus, migrate.CommandReset, "version":
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
	if opts.command == "version" && opts.version == "" {
		return errors.New("-version is required")
	}

	cfg, err := config.Load(opts.service)
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"cmd":     opts.command,
		"dir":     opts.dir,
		"service": opts.service,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	if err := opts.apply(ctx, sqlDB); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}

func (o options) apply(ctx context.Context, sqlDB *sql.DB) error {
	fsys, err := migrate.Source(o.service, o.dir)
	if err != nil {
		return err
	}
	if o.command == "version" {
		return migrate.MigrateTo(ctx, sqlDB, fsys, o.version)
	}
	return migrate.Run(ctx, sqlDB, fsys, o.command, os.Stdout)
}

func (o options) validate() error {
	fsys, err := migrate.Source(o.service, o.dir)
	if err != nil {
		return err
	}
	return migrate.ValidateFS(fsys)
}

func (o options) migrationsDir() string {
	if o.dir != "" {
		return o.dir
	}
	return migrate.DirFor(o.service)
}
