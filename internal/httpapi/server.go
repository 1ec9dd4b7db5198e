package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"oldprague.photos/fotoatlas/internal/dataset"
	"oldprague.photos/fotoatlas/internal/db"
	"oldprague.photos/fotoatlas/internal/gateway"
	"oldprague.photos/fotoatlas/internal/globaltime"
	"oldprague.photos/fotoatlas/internal/grouping"
	"oldprague.photos/fotoatlas/internal/turnstile"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	reviewCookieName = "atlas_review_session"
	reviewSessionTTL = 2 * time.Hour
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SessionCookie    string
	SessionSecure    bool
	TurnstileSiteKey string
	TurnstileBypass  bool
	ArchiveBaseURL   string
	AllowedOrigins   []string
}

// Server serves the derived grouping view and accepts decision submissions.
// The only mutable state it holds is the current snapshot and the per-sitting
// review queues; both are re-derivable from the corpus and the log at any
// time.
type Server struct {
	pool     *db.Pool
	records  []*dataset.Record
	hints    []grouping.Pair
	gw       *gateway.Gateway
	verifier *turnstile.Verifier
	signer   *turnstile.SessionSigner
	logger   zerolog.Logger
	opts     Options

	snapshots *snapshotHolder
	reviews   *reviewSessions
}

func NewServer(
	pool *db.Pool,
	records []*dataset.Record,
	hints []grouping.Pair,
	gw *gateway.Gateway,
	verifier *turnstile.Verifier,
	signer *turnstile.SessionSigner,
	logger zerolog.Logger,
	opts Options,
) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	if strings.TrimSpace(opts.SessionCookie) == "" {
		opts.SessionCookie = "atlas_turnstile_session"
	}
	if strings.TrimSpace(opts.ArchiveBaseURL) == "" {
		opts.ArchiveBaseURL = "https://katalog.ahmp.cz/pragapublica"
	}
	opts.ArchiveBaseURL = strings.TrimRight(opts.ArchiveBaseURL, "/")

	opts.Host = host
	opts.Port = port
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.ShutdownTimeout = shutdownTimeout

	return &Server{
		pool:      pool,
		records:   records,
		hints:     hints,
		gw:        gw,
		verifier:  verifier,
		signer:    signer,
		logger:    logger,
		opts:      opts,
		snapshots: &snapshotHolder{},
		reviews:   newReviewSessions(),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	if err := s.rederive(ctx); err != nil {
		return fmt.Errorf("initial derivation: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	allowOrigins := s.opts.AllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: len(s.opts.AllowedOrigins) > 0,
		MaxAge:           3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/config", s.handleConfig)
	api.GET("/stats", s.handleStats)
	api.GET("/photos", s.handlePhotos)
	api.GET("/groups", s.handleGroups)
	api.GET("/group", s.handleGroupDetail)
	api.GET("/resolve", s.handleResolve)
	api.GET("/candidates", s.handleCandidates)
	api.POST("/candidates/next", s.handleCandidateNext)
	api.POST("/candidates/previous", s.handleCandidatePrevious)
	api.POST("/verify", s.handleVerify)
	api.GET("/merges", s.handleMergeList)
	api.POST("/merges", s.handleSubmitMerge)
	api.GET("/corrections", s.handleCorrectionList)
	api.POST("/corrections", s.handleSubmitCorrection)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("fotoatlas web server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("fotoatlas web server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health ping failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "fotoatlas",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleConfig(c echo.Context) error {
	snap := s.snapshots.current()
	return success(c, map[string]any{
		"turnstile_site_key": s.opts.TurnstileSiteKey,
		"turnstile_bypass":   s.opts.TurnstileBypass,
		"archive_base_url":   s.opts.ArchiveBaseURL,
		"total_photos":       len(snap.Records),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	counts, err := s.pool.CountDecisions(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("count decisions failed")
		return internalError(c, "Failed to load stats")
	}

	snap := s.snapshots.current()
	return success(c, map[string]any{
		"derivation": snap.Stats,
		"log":        counts,
	})
}

func decodeJSONBody(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
