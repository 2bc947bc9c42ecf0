package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inhealth/alertd/internal/config"
	"github.com/inhealth/alertd/internal/domain/alert"
	"github.com/inhealth/alertd/internal/domain/directory"
	"github.com/inhealth/alertd/internal/domain/prefs"
	"github.com/inhealth/alertd/internal/domain/vitals"
	"github.com/inhealth/alertd/internal/platform/auth"
	"github.com/inhealth/alertd/internal/platform/db"
	"github.com/inhealth/alertd/internal/platform/middleware"
	"github.com/inhealth/alertd/internal/platform/notify"
	"github.com/inhealth/alertd/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "alertd",
		Short: "Vital-sign alert and escalation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the alert API server and background sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one timeout sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runSweep(dryRun, verbose)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Report what would be escalated without mutating state")
	cmd.Flags().Bool("verbose", false, "Print per-session details")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// wireService assembles storage, directory, preferences and transports
// into the alert service.
func wireService(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *alert.Service {
	var (
		emailSender    notify.EmailSender
		smsSender      notify.SMSSender
		whatsappSender notify.WhatsAppSender
	)

	if cfg.SMTPHost != "" {
		emailSender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		logger.Warn().Msg("SMTP not configured, email delivery disabled")
		emailSender = notify.NewMockEmailSender()
	}

	if cfg.TwilioAccountSID != "" {
		twilio := notify.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioSMSFrom, cfg.TwilioWhatsAppFrom)
		smsSender = twilio
		whatsappSender = twilio
	} else {
		logger.Warn().Msg("Twilio not configured, SMS and WhatsApp delivery disabled")
		smsSender = notify.NewMockSMSSender()
		whatsappSender = notify.NewMockWhatsAppSender()
	}

	dir := directory.NewPgRepository(pool)
	prefRepo := prefs.NewPgRepository(pool)

	dispatcher := alert.NewDispatcher(dir, prefRepo, emailSender, smsSender, whatsappSender, alert.DispatcherConfig{
		BaseURL:     cfg.BaseURL,
		EMSEmail:    cfg.EMSEmail,
		EMSPhone:    cfg.EMSPhone,
		MaxNurses:   cfg.MaxNursesPerAlert,
		SendTimeout: time.Duration(cfg.NotifyTimeoutSeconds) * time.Second,
	}, logger)

	return alert.NewService(
		alert.NewPgRepository(pool),
		vitals.NewPgRepository(pool),
		dir,
		dispatcher,
		cfg.AlertTimeoutMinutes,
		logger,
	)
}

func runSweep(dryRun, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	telemetry.Init()
	service := wireService(cfg, pool, logger)

	report, err := service.Sweep(ctx, time.Now(), dryRun)
	if err != nil {
		return err
	}

	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Sweep complete%s: checked %d, escalated %d, %d error(s)\n",
		mode, report.Checked, report.Escalated, len(report.Errors))
	if verbose {
		for _, e := range report.Errors {
			fmt.Println("  error:", e)
		}
	}
	return nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	telemetry.Init()
	service := wireService(cfg, pool, logger)
	handler := alert.NewHandler(service)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Tokenized patient links carry their own credential; no auth here.
	handler.RegisterPublic(e)

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	handler.RegisterStaff(apiV1)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", telemetry.Handler())

	// Background sweeper: the safety net for unanswered alerts.
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go runSweeperLoop(sweepCtx, service, time.Duration(cfg.SweepIntervalMinutes)*time.Minute, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopSweeper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runSweeperLoop(ctx context.Context, service *alert.Service, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			report, err := service.Sweep(ctx, now, false)
			if err != nil {
				logger.Error().Err(err).Msg("sweep failed")
				continue
			}
			if report.Escalated > 0 || len(report.Errors) > 0 {
				logger.Info().
					Int("checked", report.Checked).
					Int("escalated", report.Escalated).
					Int("errors", len(report.Errors)).
					Msg("sweep complete")
			}
		}
	}
}
