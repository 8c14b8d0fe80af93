package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/painelsaude/painel/internal/config"
	"github.com/painelsaude/painel/internal/domain/dashboard"
	"github.com/painelsaude/painel/internal/domain/evaluation"
	"github.com/painelsaude/painel/internal/domain/patient"
	"github.com/painelsaude/painel/internal/domain/scoring"
	"github.com/painelsaude/painel/internal/platform/auth"
	"github.com/painelsaude/painel/internal/platform/db"
	"github.com/painelsaude/painel/internal/platform/metrics"
	"github.com/painelsaude/painel/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "painel-server",
		Short: "Elderly health assessment scoring and dashboard API",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(tokenCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	openMigrator := func(cmd *cobra.Command) (*db.Migrator, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		pool, err := db.NewPool(cmd.Context(), db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 2})
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, dir, newLogger(cfg)), pool.Close, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// scoreCmd scores a questionnaire offline. Each subcommand takes flags or a
// single JSON argument with the API field names.
func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a questionnaire without storing it",
	}
	cmd.AddCommand(scoreIVCFCmd(), scoreFACTFCmd(), scoreActivityCmd())
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scoreIVCFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ivcf [json]",
		Short:   "Score an IVCF-20 frailty questionnaire",
		Example: "  painel-server score ivcf --domains 2,2,1,2,1,2,1,2",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub scoring.IVCFSubmission
			if len(args) == 1 {
				if err := decodeStrict(args[0], &sub); err != nil {
					return err
				}
			} else {
				vals, _ := cmd.Flags().GetIntSlice("domains")
				if len(vals) != 8 {
					return fmt.Errorf("--domains needs 8 values (idade, comorbidades, comunicacao, mobilidade, humor, cognicao, avd, autopercepcao), got %d", len(vals))
				}
				sub = scoring.IVCFSubmission{
					Idade: &vals[0], Comorbidades: &vals[1], Comunicacao: &vals[2], Mobilidade: &vals[3],
					Humor: &vals[4], Cognicao: &vals[5], AVD: &vals[6], Autopercepcao: &vals[7],
				}
			}
			res, err := scoring.Score(sub)
			if err != nil {
				return err
			}
			return printJSON(cmd, res.IVCF())
		},
	}
	cmd.Flags().IntSlice("domains", nil, "The 8 domain scores in questionnaire order")
	return cmd
}

// floatFlag returns the flag value only when it was set on the command line.
func floatFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func scoreFACTFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "factf [json]",
		Short:   "Score a FACT-F fatigue questionnaire",
		Example: "  painel-server score factf --fisico 20 --social 18 --emocional 16 --funcional 15 --fadiga 29.5",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub scoring.FACTFSubmission
			if len(args) == 1 {
				if err := decodeStrict(args[0], &sub); err != nil {
					return err
				}
			} else {
				sub = scoring.FACTFSubmission{
					Fisico:    floatFlag(cmd, "fisico"),
					Social:    floatFlag(cmd, "social"),
					Emocional: floatFlag(cmd, "emocional"),
					Funcional: floatFlag(cmd, "funcional"),
					Fadiga:    floatFlag(cmd, "fadiga"),
				}
			}
			res, err := scoring.Score(sub)
			if err != nil {
				return err
			}
			return printJSON(cmd, res.FACTF())
		},
	}
	cmd.Flags().Float64("fisico", 0, "Physical well-being (0-28)")
	cmd.Flags().Float64("social", 0, "Social well-being (0-28)")
	cmd.Flags().Float64("emocional", 0, "Emotional well-being (0-24)")
	cmd.Flags().Float64("funcional", 0, "Functional well-being (0-28)")
	cmd.Flags().Float64("fadiga", 0, "Fatigue subscale (0-52)")
	return cmd
}

func scoreActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activity [json]",
		Short:   "Score a physical activity questionnaire",
		Example: "  painel-server score activity --moderate 30x5 --vigorous 0x0 --sedentary 7.5",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub scoring.ActivitySubmission
			if len(args) == 1 {
				if err := decodeStrict(args[0], &sub); err != nil {
					return err
				}
			} else {
				f := cmd.Flags()
				for _, p := range []struct {
					flag          string
					minutes, days **int
				}{
					{"light", &sub.LightMinutes, &sub.LightDays},
					{"moderate", &sub.ModerateMinutes, &sub.ModerateDays},
					{"vigorous", &sub.VigorousMinutes, &sub.VigorousDays},
				} {
					v, _ := f.GetString(p.flag)
					m, d, err := parseMinutesDays(v)
					if err != nil {
						return fmt.Errorf("--%s: %w", p.flag, err)
					}
					*p.minutes, *p.days = &m, &d
				}
				sub.SedentaryHours = floatFlag(cmd, "sedentary")
				sub.ScreenHours = floatFlag(cmd, "screen")
			}
			res, err := scoring.Score(sub)
			if err != nil {
				return err
			}
			return printJSON(cmd, res.Activity)
		},
	}
	cmd.Flags().String("light", "0x0", "Light activity as <minutes per day>x<days per week>")
	cmd.Flags().String("moderate", "0x0", "Moderate activity as <minutes per day>x<days per week>")
	cmd.Flags().String("vigorous", "0x0", "Vigorous activity as <minutes per day>x<days per week>")
	cmd.Flags().Float64("sedentary", 0, "Sedentary hours per day (required)")
	cmd.Flags().Float64("screen", 0, "Screen time hours per day")
	return cmd
}

// parseMinutesDays parses "30x5" into 30 minutes on 5 days.
func parseMinutesDays(s string) (int, int, error) {
	mins, days, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected <minutes>x<days>, got %q", s)
	}
	m, err := strconv.Atoi(mins)
	if err != nil {
		return 0, 0, fmt.Errorf("minutes: %w", err)
	}
	d, err := strconv.Atoi(days)
	if err != nil {
		return 0, 0, fmt.Errorf("days: %w", err)
	}
	return m, d, nil
}

func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// tokenCmd issues an HS256 bearer token for local testing and service
// accounts.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("sub")
			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			secret, _ := cmd.Flags().GetString("secret")
			issuer, _ := cmd.Flags().GetString("issuer")
			audience, _ := cmd.Flags().GetString("audience")

			if subject == "" {
				return errors.New("--sub is required")
			}
			for _, r := range roles {
				if !auth.IsKnownRole(r) {
					return fmt.Errorf("unknown role %q", r)
				}
			}

			tok, err := auth.SignToken(auth.JWTConfig{
				Issuer:     issuer,
				Audience:   audience,
				SigningKey: []byte(secret),
			}, subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("sub", "", "Token subject (user id)")
	cmd.Flags().StringSlice("role", []string{auth.RoleProfessional}, "Granted roles")
	cmd.Flags().Duration("ttl", 8*time.Hour, "Token lifetime")
	cmd.Flags().String("secret", os.Getenv("AUTH_SECRET"), "HS256 signing secret")
	cmd.Flags().String("issuer", envOr("AUTH_ISSUER", "painel"), "Token issuer")
	cmd.Flags().String("audience", os.Getenv("AUTH_AUDIENCE"), "Token audience")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("running in development mode: requests without a bearer token are granted admin")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := newServer(cfg, pool, logger, metrics.New(reg))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires every route. The pool is only touched when a request
// reaches a repository.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{echo.HeaderContentDisposition, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, cfg.ExportTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSecret),
		}))
	}
	apiV1.Use(middleware.Audit(logger))
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Patients and health units
	patientRepo := patient.NewRepoPG(pool)
	patient.NewHandler(patient.NewService(patientRepo)).RegisterRoutes(apiV1)

	// Evaluations, one route family per instrument
	evalSvc := evaluation.NewService(evaluation.NewRepoPG(pool), patientRepo, m, logger)
	for _, inst := range []scoring.Instrument{scoring.InstrumentIVCF, scoring.InstrumentFACTF, scoring.InstrumentActivity} {
		evaluation.NewHandler(evalSvc, inst).RegisterRoutes(apiV1)
	}
	evaluation.NewPatientHandler(evalSvc).RegisterRoutes(apiV1)

	// Stateless scoring
	scoring.NewHandler().RegisterRoutes(apiV1)

	// Dashboards
	dashSvc := dashboard.NewService(dashboard.NewStorePG(pool), dashboard.Config{
		CriticalIVCFMinScore:    cfg.CriticalIVCFMinScore,
		CriticalFatigueMaxScore: cfg.CriticalFatigueMaxScore,
		Regions:                 cfg.DashboardRegions,
	}, m, logger)
	dashboard.NewHandler(dashSvc).RegisterRoutes(apiV1)

	return e
}
