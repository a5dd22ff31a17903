package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/patients/internal/config"
	"github.com/ehr/patients/internal/domain/patient"
	"github.com/ehr/patients/internal/platform/db"
	"github.com/ehr/patients/internal/platform/middleware"
)

const version = "0.1.0"

// storage is the opened patient database for either driver.
type storage struct {
	driver string
	repo   patient.Repository
	pool   *pgxpool.Pool
	sqlite *sql.DB
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, poolConfig(cfg))
		if err != nil {
			return nil, err
		}
		return &storage{driver: cfg.DBDriver, repo: patient.NewPGRepo(pool), pool: pool}, nil
	case config.DriverSQLite:
		sqlDB, err := patient.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{driver: cfg.DBDriver, repo: patient.NewSQLiteRepo(sqlDB), sqlite: sqlDB}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func (s *storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.sqlite != nil {
		s.sqlite.Close()
	}
}

// inTx runs fn in one transaction on postgres. SQLite runs it directly.
func (s *storage) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool != nil {
		return db.WithTx(ctx, s.pool, fn)
	}
	return fn(ctx)
}

func (s *storage) healthHandler() echo.HandlerFunc {
	if s.pool != nil {
		return db.PoolHealthHandler(s.pool)
	}
	return db.HealthHandler(s.driver, s.repo, nil)
}

func newServer(cfg *config.Config, st *storage, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}))
	if cfg.MetricsEnabled {
		metrics := middleware.NewMetrics("patients")
		e.Use(metrics.Middleware())
		e.GET("/metrics", metrics.Handler())
	}
	if cfg.RateLimitEnabled() {
		e.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		}))
	}
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", st.healthHandler())

	svc := patient.NewService(st.repo, logger)
	patient.NewHandler(svc).RegisterRoutes(e.Group(""))

	return e
}
