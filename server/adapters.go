package server

import (
	"fmt"

	"qrmarket/config"
	"qrmarket/internal/db"
	"qrmarket/internal/drafts"
	"qrmarket/internal/repo"
)

// openDraftStore picks the drafts backend named by cfg.Drafts.Driver.
func openDraftStore(cfg *config.Config) (drafts.Store, error) {
	switch drv := cfg.Drafts.Driver; drv {
	case "", "memory":
		return drafts.NewMemoryStore(), nil
	case "redis":
		return drafts.NewRedisStore(cfg.Drafts.DSN)
	case "bolt":
		return drafts.NewBoltStore(cfg.Drafts.DSN)
	case "postgres", "mysql":
		g, err := db.Open(drv, cfg.Drafts.DSN)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		s, err := repo.NewDraftStore(g)
		if err != nil {
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported drafts driver %q", drv)
	}
}
