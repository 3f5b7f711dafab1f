package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// ModelsFor lists the tables owned by a service.
func ModelsFor(service string) []any {
	switch service {
	case config.ServiceCatalog:
		return []any{&models.Book{}}
	case config.ServiceCart:
		return []any{&models.CartItem{}}
	}
	return nil
}

// MaybeRun syncs the schema on boot when the auto-migrate flag is enabled.
// Postgres runs the embedded goose migrations; sqlite uses GORM AutoMigrate.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	service := cfg.Service.Kind
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "service_kind": service})

	if cfg.DB.IsSQLite() {
		if err := client.AutoMigrate(ctx, ModelsFor(service)...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	fsys, err := Embedded(service)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, fsys, CommandUp, nil); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.auto_run_done")
	return nil
}
