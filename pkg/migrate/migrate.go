package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
)

// DefaultDir is where the SQL files live in the repository.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/catalog/*.sql migrations/cart/*.sql
var embedded embed.FS

// DirFor returns the on-disk migration directory of a service.
func DirFor(service string) string {
	return path.Join(DefaultDir, service)
}

// Embedded exposes the migrations compiled into the binary for a service.
func Embedded(service string) (fs.FS, error) {
	switch service {
	case config.ServiceCatalog, config.ServiceCart:
		return fs.Sub(embedded, path.Join("migrations", service))
	}
	return nil, fmt.Errorf("unknown service %q", service)
}

// Source picks the migrations to run: dir when given, otherwise the set
// embedded for service.
func Source(service, dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return Embedded(service)
}

// Commands accepted by Run.
const (
	CommandUp     = "up"
	CommandDown   = "down"
	CommandStatus = "status"
	CommandReset  = "reset"
)

// Run applies command to db using the migrations in fsys and reports one
// line per migration touched to out, which may be nil.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, command string, out io.Writer) error {
	switch command {
	case CommandUp, CommandDown, CommandStatus, CommandReset:
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	provider, err := newProvider(db, fsys)
	if err != nil {
		return err
	}
	if out == nil {
		out = io.Discard
	}

	var results []*goose.MigrationResult
	switch command {
	case CommandUp:
		results, err = provider.Up(ctx)
	case CommandDown:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	case CommandReset:
		results, err = provider.DownTo(ctx, 0)
	case CommandStatus:
		return printStatus(ctx, provider, out)
	}
	for _, res := range results {
		fmt.Fprintf(out, "%s %d %s (%s)\n", res.Direction, res.Source.Version, res.Source.Path, res.Duration)
	}
	if errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func printStatus(ctx context.Context, provider *goose.Provider, out io.Writer) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	for _, st := range statuses {
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = st.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-20s %s\n", applied, st.Source.Path)
	}
	return nil
}

// MigrateTo moves db up or down until targetVersion (YYYYMMDDHHMMSS) is the
// latest applied migration.
func MigrateTo(ctx context.Context, db *sql.DB, fsys fs.FS, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	provider, err := newProvider(db, fsys)
	if err != nil {
		return err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current < target:
		_, err = provider.UpTo(ctx, target)
	case current > target:
		_, err = provider.DownTo(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("migrate from %d to %d: %w", current, target, err)
	}
	return nil
}

func newProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return provider, nil
}
