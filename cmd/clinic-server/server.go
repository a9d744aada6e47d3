package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/address"
	"github.com/clinic/clinic/internal/domain/appointment"
	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/labrequest"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/schedule"
	"github.com/clinic/clinic/internal/domain/user"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/events"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/reminder"
	"github.com/clinic/clinic/internal/platform/validate"
	"github.com/clinic/clinic/pkg/response"
)

type services struct {
	patients     *patient.Service
	appointments *appointment.Service
	labRequests  *labrequest.Service
	schedules    *schedule.Service
	doctors      *doctor.Service
	users        *user.Service
}

func newAccounts(st *stores, tokens *auth.TokenIssuer) (*doctor.Service, *user.Service) {
	doctors := doctor.NewService(st.doctors, user.Lookup(st.users))
	return doctors, user.NewService(st.users, doctors, tokens)
}

func newServices(st *stores, dir *address.Directory, tokens *auth.TokenIssuer, publisher events.Publisher) *services {
	doctors, users := newAccounts(st, tokens)
	patients := patient.NewService(st.patients, dir)
	appointments := appointment.NewService(st.appointments, patients, doctors, publisher)
	labRequests := labrequest.NewService(st.labRequests, patients, doctors, publisher)
	schedules := schedule.NewService(st.schedules, doctors)

	// Deleting a patient removes its visits and lab work; deleting a
	// doctor keeps their records and clears the reference.
	patients.OnDelete(appointments, labRequests)
	doctors.OnDelete(appointments, labRequests, schedules)

	return &services{
		patients:     patients,
		appointments: appointments,
		labRequests:  labRequests,
		schedules:    schedules,
		doctors:      doctors,
		users:        users,
	}
}

func newLogger(env string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clinic").Logger()
	if env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

// newTokenIssuer signs with JWT_SECRET. In development a random key is
// generated when none is set, so tokens do not survive a restart.
func newTokenIssuer(cfg *config.Config, logger zerolog.Logger) (*auth.TokenIssuer, error) {
	key := []byte(cfg.JWTSecret)
	if len(key) == 0 {
		if !cfg.IsDev() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		logger.Warn().Msg("JWT_SECRET not set, using an ephemeral signing key")
	}
	return auth.NewTokenIssuer(key, cfg.JWTTTL), nil
}

func newPublisher(cfg *config.Config, logger zerolog.Logger) (events.Publisher, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return events.NewLogPublisher(logger), nil
	}
	pub, err := events.NewKafkaPublisher(brokers, cfg.KafkaTopic, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to kafka")
	return pub, nil
}

func newServer(cfg *config.Config, svcs *services, dir *address.Directory, storeHealth echo.HandlerFunc, tokens *auth.TokenIssuer, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	jwtCfg := auth.JWTConfig{Issuer: tokens, Skipper: auth.AuthSkipper}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return response.OK(c, map[string]string{"status": "ok"})
	})
	e.GET("/health/store", storeHealth)

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl = middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	}
	api := e.Group("/api/v1", middleware.RateLimit(rl))
	if cfg.RequestTimeout > 0 {
		api.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	address.NewHandler(dir).RegisterRoutes(api)
	user.NewHandler(svcs.users).RegisterRoutes(api)
	doctor.NewHandler(svcs.doctors).RegisterRoutes(api)
	patient.NewHandler(svcs.patients).RegisterRoutes(api)
	appointment.NewHandler(svcs.appointments).RegisterRoutes(api)
	labrequest.NewHandler(svcs.labRequests).RegisterRoutes(api)
	schedule.NewHandler(svcs.schedules).RegisterRoutes(api)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	dir, err := loadDirectory(cfg.AddressDataset)
	if err != nil {
		return fmt.Errorf("load address dataset: %w", err)
	}
	provinces, cities, barangays := dir.Stats()
	logger.Info().Int("provinces", provinces).Int("cities", cities).Int("barangays", barangays).Msg("address dataset loaded")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("event publisher close failed")
		}
	}()

	svcs := newServices(st, dir, tokens, publisher)

	if cfg.ReminderCron != "" {
		scheduler, err := reminder.NewJob(svcs.appointments, publisher, logger).Schedule(cfg.ReminderCron)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info().Str("spec", cfg.ReminderCron).Msg("appointment reminders scheduled")
	}

	e := newServer(cfg, svcs, dir, st.health, tokens, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", st.driver).Msg("starting clinic server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
