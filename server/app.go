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
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"qrmarket/config"
	"qrmarket/internal/apiclient"
	"qrmarket/internal/credentials"
	"qrmarket/internal/drafts"
	"qrmarket/internal/health"
	"qrmarket/internal/logs"
	"qrmarket/internal/middleware"
	"qrmarket/internal/models"
	"qrmarket/internal/qrmanager"
	"qrmarket/internal/services/auth"
	"qrmarket/internal/services/commerce"
	"qrmarket/internal/services/qrcode"
	"qrmarket/internal/session"
	"qrmarket/internal/signup"
	"qrmarket/internal/web"
)

// managerIdle is how long a browser's QR list cache survives without use.
const managerIdle = 30 * time.Minute

type App struct {
	cfg        *config.Config
	store      drafts.Store
	drafts     *drafts.Service
	registry   *qrmanager.Registry
	cron       *cron.Cron
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) logs */
	logs.Init(logs.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	/* 2) drafts store */
	store, err := openDraftStore(cfg)
	if err != nil {
		logs.Logger.Fatalf("drafts store (%s): %v", cfg.Drafts.Driver, err)
	}
	a.store = store
	a.drafts = drafts.NewService(store, cfg.Drafts.TTL)

	/* 3) backend services */
	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout)
	authSvc := auth.New(api, models.Platform(cfg.API.Platform))
	a.registry = qrmanager.NewRegistry(qrcode.New(api))

	creds := credentials.New([]byte(cfg.Session.Secret), credentials.Options{
		TokenCookie:   cfg.Session.TokenCookie,
		BrowserCookie: cfg.Session.BrowserCookie,
		MaxAge:        cfg.Session.TokenMaxAge,
		Secure:        !cfg.IsDevelopment(),
	})
	flow := signup.New(authSvc, a.drafts)
	sessions := session.NewManager(creds, authSvc, flow)
	// a different user must never see the previous user's cached codes
	sessions.OnChange = a.registry.Drop

	/* 4) background jobs */
	a.cron = cron.New()
	if _, err := a.cron.AddFunc(cfg.Drafts.Sweep, a.sweepDrafts); err != nil {
		logs.Logger.Fatalf("drafts sweep schedule %q: %v", cfg.Drafts.Sweep, err)
	}
	if _, err := a.cron.AddFunc("@every 5m", a.evictManagers); err != nil {
		logs.Logger.Fatalf("manager eviction schedule: %v", err)
	}

	/* 5) router + middleware */
	a.Router = mux.NewRouter()
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
		middleware.SecureHeaders,
	)

	/* 6) health, then pages */
	health.RegisterRoutesWithStore(a.Router, store)
	web.Attach(a.Router, web.Dependencies{
		CFG:      cfg,
		Creds:    creds,
		Sessions: sessions,
		Auth:     authSvc,
		Signup:   flow,
		QR:       a.registry,
		Commerce: commerce.New(api),
		Drafts:   a.drafts,
	})

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
}

func (a *App) sweepDrafts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := a.drafts.Sweep(ctx)
	if err != nil {
		logs.Logger.Warnf("drafts sweep: %v", err)
		return
	}
	if n > 0 {
		logs.Logger.Infof("drafts sweep: removed %d expired", n)
	}
}

func (a *App) evictManagers() {
	if n := a.registry.Evict(managerIdle); n > 0 {
		logs.Logger.Debugf("evicted %d idle qr managers", n)
	}
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
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
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// backend calls are bounded by api.timeout; leave room for two of them
		WriteTimeout: 2*a.cfg.API.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.cron.Start()

	go func() {
		logs.Logger.Infof("HTTP listening on %s (backend %s)", bind, a.cfg.API.BaseURL)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	<-a.cron.Stop().Done()
	if err := a.store.Close(); err != nil {
		logs.Logger.Errorf("drafts store close: %v", err)
	}
	return nil
}
