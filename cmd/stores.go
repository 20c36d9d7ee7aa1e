package main

import (
	"context"
	"fmt"

	"github.com/htl-registration/appointment-intake/internal/config"
	"github.com/htl-registration/appointment-intake/internal/database"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/htl-registration/appointment-intake/internal/repository"
	"github.com/htl-registration/appointment-intake/internal/service"
)

type stores struct {
	configs service.ConfigurationStore
	ledger  service.RegistrationLedger
	close   func()
}

// openStores connects the configured backend and makes sure its schema
// exists.
func openStores(ctx context.Context, c *config.Config) (*stores, error) {
	if c.StoreDriver == config.StoreDriverMemory {
		logger.Log.Warn().Msg("using in-memory store; data is lost on exit")
		return &stores{
			configs: repository.NewMemoryConfigurationRepository(),
			ledger:  repository.NewMemoryRegistrationRepository(),
			close:   func() {},
		}, nil
	}

	pool, err := database.NewPool(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Log.Info().Msg("connected to postgres")

	return &stores{
		configs: repository.NewConfigurationRepository(pool),
		ledger:  repository.NewRegistrationRepository(pool),
		close:   pool.Close,
	}, nil
}

// requirePersistent rejects the memory driver for one-shot commands,
// which would otherwise act on an empty store and exit.
func requirePersistent(c *config.Config, command string) error {
	if c.StoreDriver == config.StoreDriverMemory {
		return fmt.Errorf("%s needs STORE_DRIVER=%s", command, config.StoreDriverPostgres)
	}
	return nil
}

func appointmentOptions(c *config.Config) []service.AppointmentOption {
	opts := []service.AppointmentOption{service.WithConfigStoreTimeout(c.StoreTimeout)}
	if c.VisibilityFilter {
		opts = append(opts, service.WithVisibilityFilter(c.VisibilityOffset))
	}
	return opts
}
