package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/opsportal/ops-portal/api"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/attendance"
	"github.com/opsportal/ops-portal/internal/auth"
	"github.com/opsportal/ops-portal/internal/category"
	"github.com/opsportal/ops-portal/internal/core/events"
	"github.com/opsportal/ops-portal/internal/finance"
	"github.com/opsportal/ops-portal/internal/financegate"
	"github.com/opsportal/ops-portal/internal/i18n"
	"github.com/opsportal/ops-portal/internal/schedule"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/summary"
	"github.com/opsportal/ops-portal/internal/transport"
	"github.com/opsportal/ops-portal/internal/transport/rest"
	"github.com/opsportal/ops-portal/internal/transport/swagger"
	"github.com/opsportal/ops-portal/internal/user"
	"github.com/opsportal/ops-portal/pkg/logger"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config        *internal.Config
	Store         *store.Store
	Sessions      session.Store
	CloseSessions func() error
	Bus           *events.EventBus
	Services      *Services
	Router        *chi.Mux
	Logger        *slog.Logger
}

// Services is every domain service, wired together.
type Services struct {
	Users      *user.Service
	Auth       *auth.Service
	Schedules  *schedule.Service
	Attendance *attendance.Service
	Summary    *summary.Service
	Categories *category.Service
	Finance    *finance.Service
	Gate       *financegate.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "store", deps.Config.Store.Driver, "sessions", deps.Config.Session.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Wait(ctx); err != nil {
			deps.Logger.Error("Event handlers did not finish", "error", err)
		}
		deps.close(ctx)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close(ctx context.Context) {
	if err := d.Store.Close(ctx); err != nil {
		d.Logger.Error("Store close error", "error", err)
	}
	if err := d.CloseSessions(); err != nil {
		d.Logger.Error("Session store close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc, err := swagger.Load(ctx, api.OpenAPI)
	if err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	deps.Logger.Debug("OpenAPI document loaded", "paths", doc.Paths.Len())

	translator, err := i18n.New(deps.Config.App.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	base := transport.NewBaseHandler(deps.Logger, translator)
	svc := deps.Services
	loc, err := deps.Config.App.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	clock := internal.LocalClock(time.Now, loc)

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Base:       base,
		Translator: translator,
		Health: rest.NewHealthHandler(map[string]rest.Pinger{
			"store":    deps.Store,
			"sessions": deps.Sessions,
		}),
		Auth:           auth.NewHandler(base, svc.Auth),
		User:           user.NewHandler(base, svc.Users),
		Attendance:     attendance.NewHandler(base, svc.Attendance, clock),
		Summary:        summary.NewHandler(base, svc.Summary, clock),
		Schedule:       schedule.NewHandler(base, svc.Schedules),
		Category:       category.NewHandler(base, svc.Categories),
		Finance:        finance.NewHandler(base, svc.Finance, clock),
		FinanceKey:     financegate.NewHandler(base, svc.Gate),
		OpenAPI:        api.OpenAPI,
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
	}, deps.Logger)
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(config.App.Env, config.Logging.Level)

	st, err := initStore(ctx, config.Store, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	sessions, closeSessions, err := initSessions(ctx, config.Session, lg)
	if err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.SubscribeAudit(bus, lg.With("component", "audit"))

	services, err := buildServices(config, st, sessions, bus, lg)
	if err != nil {
		_ = st.Close(ctx)
		_ = closeSessions()
		return nil, err
	}

	if config.Finance.InitialKey != "" {
		written, err := services.Gate.EnsureKey(ctx, config.Finance.InitialKey)
		if err != nil {
			lg.Error("failed to seed finance key", "error", err)
		} else if written {
			lg.Info("finance key seeded from configuration")
		}
	}

	return &Dependencies{
		Config:        config,
		Store:         st,
		Sessions:      sessions,
		CloseSessions: closeSessions,
		Bus:           bus,
		Services:      services,
		Router:        chi.NewRouter(),
		Logger:        lg,
	}, nil
}

func buildServices(cfg *internal.Config, st *store.Store, sessions session.Store, publisher events.Publisher, lg *slog.Logger) (*Services, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	refs, err := finance.NewSnowflakeReferences(cfg.App.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference generator: %w", err)
	}

	schedules := schedule.NewService(schedule.NewStoreRepository(st), lg.With("service", "schedule"))
	users := user.NewService(user.NewStoreRepository(st), lg.With("service", "user"),
		user.WithPublisher(publisher),
		user.WithScheduleLookup(schedules),
		user.WithBCryptCost(cfg.Security.BCryptCost),
	)
	attendanceSvc := attendance.NewService(attendance.NewStoreRepository(st), lg.With("service", "attendance"),
		attendance.WithLocation(loc),
		attendance.WithPublisher(publisher),
	)
	categories := category.NewService(category.NewStoreRepository(st), lg.With("service", "category"))

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)

	return &Services{
		Users:      users,
		Auth:       auth.NewService(users, tokens, sessions, lg.With("service", "auth"), cfg.Session.TTL),
		Schedules:  schedules,
		Attendance: attendanceSvc,
		Summary: summary.NewService(attendanceSvc, schedules, users, lg.With("service", "summary"),
			summary.WithLocation(loc),
		),
		Categories: categories,
		Finance: finance.NewService(finance.NewStoreRepository(st), refs, lg.With("service", "finance"),
			finance.WithPublisher(publisher),
			finance.WithCategoryValidator(categories),
			finance.WithLocation(loc),
		),
		Gate: financegate.NewService(financegate.NewStoreRepository(st), sessions, lg.With("service", "financegate"),
			financegate.WithTTL(cfg.Finance.UnlockTTL),
		),
	}, nil
}
