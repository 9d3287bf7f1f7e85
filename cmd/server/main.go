package main

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

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/iBySnoW/BeFriendBackend/internal/auth"
	"github.com/iBySnoW/BeFriendBackend/internal/config"
	"github.com/iBySnoW/BeFriendBackend/internal/invite"
	"github.com/iBySnoW/BeFriendBackend/internal/ledger"
	"github.com/iBySnoW/BeFriendBackend/internal/metrics"
	"github.com/iBySnoW/BeFriendBackend/internal/middleware"
	"github.com/iBySnoW/BeFriendBackend/internal/service"
	"github.com/iBySnoW/BeFriendBackend/internal/storage/sqlite"
	"github.com/iBySnoW/BeFriendBackend/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
	authSvc.SetSecureCookie(cfg.SecureCookies)
	if cfg.GoogleEnabled() {
		verifier := auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		authSvc.EnableFederation(auth.NewReconciler(store, jwtManager), verifier)
		slog.Info("Google sign-in enabled", "redirect_url", cfg.GoogleRedirectURL)
	}

	userSvc := service.NewUserService(store)
	groupSvc := service.NewGroupService(store, ledger.NewEngine(store), invite.NewIssuer(store, cfg.FrontendURL))
	eventSvc := service.NewEventService(store)
	expenseSvc := service.NewExpenseService(store)
	poolSvc := service.NewPoolService(ledger.NewPools(store), store)

	optionalAuth := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor())
	requireAuth := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(service.NewAuthServiceHandler(authSvc, optionalAuth))
	mux.Handle(service.NewUserServiceHandler(userSvc, requireAuth))
	mux.Handle(service.NewGroupServiceHandler(groupSvc, requireAuth))
	mux.Handle(service.NewEventServiceHandler(eventSvc, requireAuth))
	mux.Handle(service.NewExpenseServiceHandler(expenseSvc, requireAuth))
	mux.Handle(service.NewPoolServiceHandler(poolSvc, requireAuth))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.RequestLogger(middleware.CORS(cfg.CORSOrigin)(metrics.InstrumentHandler(mux)))

	// h2c serves HTTP/2 without TLS, which Connect clients use.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "frontend", cfg.FrontendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
