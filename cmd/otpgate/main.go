package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/otpgate/otpgate/internal/config"
	"github.com/otpgate/otpgate/internal/db"
	"github.com/otpgate/otpgate/internal/handler"
	"github.com/otpgate/otpgate/internal/job"
	"github.com/otpgate/otpgate/internal/mailer"
	"github.com/otpgate/otpgate/internal/otp"
	"github.com/otpgate/otpgate/internal/repo"
	"github.com/otpgate/otpgate/internal/schedule"
	"github.com/otpgate/otpgate/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "otpgate",
		Short: "otpgate auth server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run otpgate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.Strings("mail_transports", cfg.Mail.Transports),
		zap.Bool("debug_echo_otp", cfg.DebugEchoOTP),
	)

	userRepo := repo.NewUserRepo(conn)
	challengeRepo := repo.NewOtpChallengeRepo(conn)

	notifier, err := mailer.NewChain(cfg.Mail)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	engine := otp.NewEngine(challengeRepo)
	tokenTTL := time.Hour * time.Duration(cfg.TokenTTLHours)
	authService := service.NewAuthService(userRepo, engine, notifier, []byte(cfg.JWTSecret), tokenTTL, cfg.DebugEchoOTP)
	userService := service.NewUserService(userRepo)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(userService),
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewScheduler()
	if err := scheduler.AddJob(job.NewOtpCleanupJob(challengeRepo), "* * * * *"); err != nil {
		return fmt.Errorf("schedule otp cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: router,
	}
	go func() {
		logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
