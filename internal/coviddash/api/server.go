package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// Refresher starts a new batch in the background.
type Refresher interface {
	Refresh() error
}

type Server struct {
	e       *echo.Echo
	handler *Handler
}

func NewServer(holder *dashboard.Holder, loc *covidstats.Locale, refresher Refresher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.WithField("err", v.Error).Error("request failed")
			} else {
				entry.Debug("request")
			}
			return nil
		},
	}))

	h := NewHandler(holder, loc, refresher)
	h.RegisterRoutes(e)
	return &Server{e: e, handler: h}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start blocks until the server is shut down.
func (s *Server) Start(addr string) error {
	log.WithField("addr", addr).Info("HTTP API is listening")
	err := s.e.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
