package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"driveauth/internal/auth"
	"driveauth/internal/drive"
	"driveauth/internal/logger"
	"driveauth/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type HistoryReader interface {
	GetRecent(ctx context.Context, limit int) ([]model.History, error)
	GetByProvider(ctx context.Context, provider model.Provider, limit int) ([]model.History, error)
}

type Server struct {
	echo     *echo.Echo
	facade   *auth.Facade
	resolver *drive.Resolver
	history  HistoryReader
	port     int
	stopCh   chan struct{}
}

func NewServer(facade *auth.Facade, resolver *drive.Resolver, history HistoryReader, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		facade:   facade,
		resolver: resolver,
		history:  history,
		port:     port,
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	s.echo.POST("/auth/:provider", s.handleSignIn)

	g := s.echo.Group("/tokens")
	g.GET("/:provider", s.handleGetToken)
	g.PUT("/:provider", s.handlePutToken)

	s.echo.GET("/accounts/:provider", s.handleAccount)
	s.echo.GET("/history", s.handleHistory)
}

// Run serves until ctx is done, POST /stop is called, or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	addr := "127.0.0.1:" + strconv.Itoa(s.port)
	errCh := make(chan error, 1)

	go func() {
		logger.Log.Info("daemon server started", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Log.Error("daemon server error", zap.Error(err))
		return err
	case <-ctx.Done():
	case <-s.stopCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Log.Info("daemon server stopping")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func jsonError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotConfigured), errors.Is(err, auth.ErrPrerequisitesUnavailable):
		return http.StatusPreconditionFailed
	case errors.Is(err, auth.ErrAuthorizationDenied), errors.Is(err, auth.ErrStateMismatch):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func providerParam(c echo.Context) (model.Provider, error) {
	return model.ParseProvider(c.Param("provider"))
}

type providerStatus struct {
	Provider   model.Provider `json:"provider"`
	Configured bool           `json:"configured"`
	HasToken   bool           `json:"has_token"`
}

func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()

	configured := make(map[model.Provider]bool)
	for _, p := range s.facade.Configured() {
		configured[p] = true
	}

	statuses := make([]providerStatus, 0, len(model.Providers))
	for _, p := range model.Providers {
		_, ok, err := s.facade.GetAuthToken(ctx, p)
		if err != nil {
			return jsonError(c, http.StatusInternalServerError, err)
		}
		statuses = append(statuses, providerStatus{Provider: p, Configured: configured[p], HasToken: ok})
	}

	return c.JSON(http.StatusOK, map[string]any{"providers": statuses})
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

type tokenResponse struct {
	Provider    model.Provider `json:"provider"`
	AccessToken string         `json:"access_token"`
}

func (s *Server) handleSignIn(c echo.Context) error {
	provider, err := providerParam(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	token, err := s.facade.SignIn(c.Request().Context(), provider)
	if err != nil {
		return jsonError(c, errorStatus(err), err)
	}

	return c.JSON(http.StatusOK, tokenResponse{Provider: provider, AccessToken: token})
}

func (s *Server) handleGetToken(c echo.Context) error {
	provider, err := providerParam(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	token, ok, err := s.facade.GetAuthToken(c.Request().Context(), provider)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no token for " + provider.String()})
	}

	return c.JSON(http.StatusOK, tokenResponse{Provider: provider, AccessToken: token})
}

func (s *Server) handlePutToken(c echo.Context) error {
	provider, err := providerParam(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	var req tokenResponse
	if err := c.Bind(&req); err != nil || req.AccessToken == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "access_token required"})
	}

	if err := s.facade.StoreAuthToken(c.Request().Context(), provider, req.AccessToken); err != nil {
		return jsonError(c, errorStatus(err), err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAccount(c echo.Context) error {
	provider, err := providerParam(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err)
	}

	ctx := c.Request().Context()
	token, ok, err := s.facade.GetAuthToken(ctx, provider)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no token for " + provider.String()})
	}

	account, err := s.resolver.Lookup(ctx, provider, token)
	if err != nil {
		return jsonError(c, http.StatusBadGateway, err)
	}

	return c.JSON(http.StatusOK, account)
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	if s.history == nil {
		return c.JSON(http.StatusOK, []model.History{})
	}

	var (
		histories []model.History
		err       error
	)
	if p := c.QueryParam("provider"); p != "" {
		provider, perr := model.ParseProvider(p)
		if perr != nil {
			return jsonError(c, http.StatusBadRequest, perr)
		}
		histories, err = s.history.GetByProvider(c.Request().Context(), provider, n)
	} else {
		histories, err = s.history.GetRecent(c.Request().Context(), n)
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, histories)
}
