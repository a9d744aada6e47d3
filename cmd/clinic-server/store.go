package main

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/appointment"
	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/labrequest"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/schedule"
	"github.com/clinic/clinic/internal/domain/user"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/docstore"
	"github.com/clinic/clinic/pkg/response"
)

// stores holds one repository per entity for the selected driver.
type stores struct {
	driver       string
	patients     patient.Repository
	appointments appointment.Repository
	labRequests  labrequest.Repository
	schedules    schedule.Repository
	doctors      doctor.Repository
	users        user.Repository
	health       echo.HandlerFunc
	close        func()
}

func memoryStores() *stores {
	return &stores{
		driver:       config.DriverMemory,
		patients:     patient.NewMemoryRepo(),
		appointments: appointment.NewMemoryRepo(),
		labRequests:  labrequest.NewMemoryRepo(),
		schedules:    schedule.NewMemoryRepo(),
		doctors:      doctor.NewMemoryRepo(),
		users:        user.NewMemoryRepo(),
		health: func(c echo.Context) error {
			return response.OK(c, map[string]string{"status": "ok", "driver": config.DriverMemory})
		},
		close: func() {},
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memoryStores(), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return &stores{
			driver:       config.DriverPostgres,
			patients:     patient.NewPGRepo(pool),
			appointments: appointment.NewPGRepo(pool),
			labRequests:  labrequest.NewPGRepo(pool),
			schedules:    schedule.NewPGRepo(pool),
			doctors:      doctor.NewPGRepo(pool),
			users:        user.NewPGRepo(pool),
			health:       db.HealthHandler(pool),
			close:        pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := docstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		if err := docstore.EnsureIndexes(ctx, database, docstore.Indexes); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		return &stores{
			driver:       config.DriverMongo,
			patients:     patient.NewMongoRepo(database),
			appointments: appointment.NewMongoRepo(database),
			labRequests:  labrequest.NewMongoRepo(database),
			schedules:    schedule.NewMongoRepo(database),
			doctors:      doctor.NewMongoRepo(database),
			users:        user.NewMongoRepo(database),
			health:       docstore.HealthHandler(client),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error().Err(err).Msg("mongodb disconnect failed")
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
