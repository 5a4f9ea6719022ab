package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"confd/config"
	"confd/internal/api"
	"confd/internal/association"
	"confd/internal/controller"
	"confd/internal/db"
	"confd/internal/health"
	"confd/internal/logs"
	"confd/internal/middleware"
	"confd/internal/repo"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	logs.Init(logs.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	a.db = d
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(a.db); err != nil {
			return fmt.Errorf("db migrate failed: %w", err)
		}
	}

	devices := repo.NewDeviceStore(a.db)
	lines := repo.NewLineStore(a.db)
	pd := newProvdClient(cfg)

	rec := controller.NewReconciler(devices, newGenerator(a.db), pd, reconcilerOptions(cfg))
	assoc := association.NewService(lines, devices, rec, pd)

	a.Router = newRouter(a.db, api.NewHandler(assoc, rec), cfg.Server.APIToken)

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func newRouter(gdb *gorm.DB, h *api.Handler, token string) *mux.Router {
	r := mux.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
		middleware.Metrics,
	)

	health.RegisterRoutesWithDB(r, gdb)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	api.RegisterRoutes(r, h, token)
	return r
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		// bulk resync answers once every device was handled
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  2 * a.cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-a.ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
