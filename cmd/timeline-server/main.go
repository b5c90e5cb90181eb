package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ehr/timeline/docs" // Swagger docs
	"github.com/ehr/timeline/internal/config"
	"github.com/ehr/timeline/internal/domain/timeline"
	"github.com/ehr/timeline/internal/platform/chart"
	"github.com/ehr/timeline/internal/platform/metrics"
	"github.com/ehr/timeline/internal/platform/middleware"
	"github.com/ehr/timeline/internal/platform/workbook"
)

const version = "0.1.0"

// @title Clinical Timeline API
// @version 1.0
// @description Plots medication courses, steroid doses, lab results, temperature and clinical notes from an uploaded workbook on one shared date axis.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /

func main() {
	rootCmd := &cobra.Command{
		Use:           "timeline-server",
		Short:         "Clinical timeline chart server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(templateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the timeline web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func renderCmd() *cobra.Command {
	var input, output, today string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a timeline workbook to SVG or HTML",
		Long: "Render a timeline workbook to a chart. The output is an SVG document,\n" +
			"or a full page with the chart inline when --output ends in .html.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), input, output, today)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "workbook to render (.xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&today, "today", "", "processing date for ongoing courses (dd/mm/yyyy), defaults to the current date")
	cmd.MarkFlagRequired("input")
	return cmd
}

func templateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty input workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeFile(output, func(w io.Writer) error {
				return workbook.NewLoader(workbook.Options{}).WriteTemplate(w)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "timeline-template.xlsx", "output file, - for stdout")
	return cmd
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func chartOptions(cfg *config.Config) chart.Options {
	return chart.Options{
		Width:        cfg.ChartWidth,
		PanelHeight:  cfg.ChartPanelHeight,
		TickInterval: cfg.ChartTickInterval,
	}
}

func newService(cfg *config.Config, logger zerolog.Logger, loader *workbook.Loader) (*timeline.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	svc := timeline.NewService(loader, chart.NewSVGRenderer(chartOptions(cfg)), logger)
	svc.SetLocation(loc)
	return svc, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg, os.Stdout)

	reg := prometheus.NewRegistry()
	e, err := newServer(cfg, logger, metrics.New(reg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires the HTTP surface: middleware, probes, docs and the
// timeline routes.
func newServer(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*echo.Echo, error) {
	loader := workbook.NewLoader(workbook.Options{})
	svc, err := newService(cfg, logger, loader)
	if err != nil {
		return nil, err
	}
	svc.SetRecorder(m)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 10 * time.Second

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.MaxUploadSize))

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		if cfg.RateLimitBurst > 0 {
			rateLimitCfg.BurstSize = cfg.RateLimitBurst
		}
	}
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	)))

	apiV1 := e.Group("/api/v1")
	timeline.NewHandler(svc, loader).RegisterRoutes(e, apiV1)

	return e, nil
}

// health godoc
// @Summary Health check
// @Description Liveness probe.
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func runRender(ctx context.Context, input, output, today string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	svc, err := newService(cfg, logger, workbook.NewLoader(workbook.Options{}))
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()
	clock, err := parseToday(today, loc)
	if err != nil {
		return err
	}
	svc.SetClock(clock)

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var chartBuf bytes.Buffer
	if _, err := svc.Render(ctx, f, &chartBuf); err != nil {
		return err
	}

	return writeFile(output, func(w io.Writer) error {
		if isHTML(output) {
			return timeline.WritePage(w, chartBuf.Bytes(), "")
		}
		_, err := chartBuf.WriteTo(w)
		return err
	})
}

// parseToday returns the clock used for ongoing courses. An empty value
// means the wall clock.
func parseToday(s string, loc *time.Location) (func() time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now, nil
	}
	d, err := timeline.ParseDate(s, loc)
	if err != nil {
		return nil, fmt.Errorf("--today %q: expected dd/mm/yyyy", s)
	}
	return func() time.Time { return d }, nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// writeFile runs write against path, or stdout for "-". Partial files are
// removed on error.
func writeFile(path string, write func(w io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
