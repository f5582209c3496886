package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"jobportal/internal/cache"
)

// CacheClearAction deletes cached responses matching --pattern.
func CacheClearAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := newAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer ac.Close()
	if ac.cfg.CacheDriver != "redis" {
		return fmt.Errorf("cache clear needs CACHE_DRIVER=redis, got %q", ac.cfg.CacheDriver)
	}

	layer := cache.NewLayer(ac.cacheStore(), ac.logger, nil, ac.cfg.CacheOpTimeout)
	deleted, err := layer.Clear(ctx, cmd.String("pattern"))
	if err != nil {
		return err
	}
	ac.logger.Info("cache cleared", slog.Int("deleted", deleted))
	fmt.Fprintf(cmd.Root().Writer, "deleted %d keys\n", deleted)
	return nil
}
