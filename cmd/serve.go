package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pawanx64/File-Sharing-Backend/auth"
	"github.com/pawanx64/File-Sharing-Backend/auth/middleware"
	"github.com/pawanx64/File-Sharing-Backend/initializers"
	"github.com/pawanx64/File-Sharing-Backend/jobs"
	"github.com/pawanx64/File-Sharing-Backend/repository"
	"github.com/pawanx64/File-Sharing-Backend/routes"
	"github.com/pawanx64/File-Sharing-Backend/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	m, err := initializers.NewMailer(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	tokens := auth.NewTokenIssuer(a.cfg.JWTSecret, a.cfg.TokenTTL)
	users := repository.NewUserRepository(a.db)
	files := repository.NewFileRepository(a.db)

	accounts := services.NewAccountService(users, m, tokens, a.cfg.OTPTTL, a.log)
	fileService := services.NewFileService(files, a.store, services.FileConfig{
		Folder:         a.cfg.StorageFolder,
		ShareBaseURL:   a.cfg.ShareBaseURL,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
	}, a.log)

	limiter := middleware.NewRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst)
	otpLimiter := middleware.NewRateLimiter(a.cfg.OTPRateLimitRPS, a.cfg.OTPRateLimitBurst)
	go limiter.Run(ctx)
	go otpLimiter.Run(ctx)

	reconciler := jobs.NewReconciler(files, a.store, jobs.ReconcileConfig{
		Folder: a.cfg.StorageFolder,
		Grace:  a.cfg.ReconcileGrace,
	}, a.log)
	reconciler.Start(ctx, a.cfg.ReconcileInterval)

	router := routes.NewRouter(routes.Deps{
		Accounts:       accounts,
		Files:          fileService,
		Tokens:         tokens,
		Log:            a.log,
		AllowedOrigins: a.cfg.AllowedOrigins,
		Limiter:        limiter,
		OTPLimiter:     otpLimiter,
		Ping: func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("http server listening", "addr", srv.Addr, "environment", a.cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
