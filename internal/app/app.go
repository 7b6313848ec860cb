package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-timeclock/internal/config"
	"go-timeclock/internal/database"
	"go-timeclock/internal/event"
	"go-timeclock/internal/handler"
	"go-timeclock/internal/metrics"
	"go-timeclock/internal/middleware"
	"go-timeclock/internal/repository"
	"go-timeclock/internal/router"
	"go-timeclock/internal/service"
	"go-timeclock/internal/websocket"
)

type App struct {
	server          *http.Server
	shutdownTimeout time.Duration
	cleanupFuncs    []func()
}

type stores struct {
	accounts repository.AccountRepository
	records  repository.AttendanceRepository
	sessions repository.SessionRepository
	health   func(context.Context) error
	close    func()
}

func New(cfg *config.Config) (*App, error) {
	location, err := time.LoadLocation(cfg.LedgerTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger timezone: %w", err)
	}

	st, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	issuer, err := service.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	directoryService := service.NewDirectoryService(st.accounts)
	authService := service.NewAuthService(st.accounts, st.sessions, issuer, service.NewBcryptHasher(cfg.BcryptCost), directoryService, m)
	if err := authService.Bootstrap(context.Background(), cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		st.close()
		return nil, fmt.Errorf("failed to bootstrap accounts: %w", err)
	}

	bus := event.NewBus()
	ledgerService := service.NewLedgerService(st.records, st.accounts, directoryService, bus, m, location)

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(bus)
	go hub.Run(backgroundCtx)
	go authService.StartSessionSweeper(backgroundCtx, cfg.SessionSweepEvery)

	authMiddleware := middleware.NewAuthMiddleware(authService, directoryService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: handler.NewAuthHandler(authService, directoryService, handler.CookieOptions{
			Secure:             cfg.CookieSecure,
			ExposeRefreshToken: cfg.RefreshTokenInBody,
		}),
		Employee: handler.NewEmployeeHandler(ledgerService, directoryService),
		Events:   handler.NewEventsHandler(hub, websocket.NewUpgrader(cfg.CORSOrigins)),
		Health:   st.health,
	}, m)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		cleanupFuncs: []func(){
			backgroundCancel,
			st.close,
		},
	}, nil
}

func openStores(cfg *config.Config) (stores, error) {
	if cfg.StorageDriver != config.StoragePostgres {
		slog.Warn("using in-memory storage; data is lost on restart")
		return stores{
			accounts: repository.NewMemoryAccountRepository(),
			records:  repository.NewMemoryAttendanceRepository(),
			sessions: repository.NewMemorySessionRepository(),
			health:   func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return stores{}, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	return stores{
		accounts: repository.NewPostgresAccountRepository(db.Pool),
		records:  repository.NewPostgresAttendanceRepository(db.Pool),
		sessions: repository.NewPostgresSessionRepository(db.Pool),
		health:   db.Health,
		close:    db.Close,
	}, nil
}

// Handler exposes the routed handler, mainly for in-process tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return a.Shutdown()
}

func (a *App) Shutdown() error {
	timeout := a.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
