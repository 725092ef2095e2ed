// Package server exposes the query service as a read-only JSON HTTP API.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/query"
)

// RequestIDHeader carries the id assigned to every request
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Server serves queries over HTTP
type Server struct {
	echo    *echo.Echo
	service *query.Service
	logger  *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server for the service and registers the routes
func New(service *query.Service, opts ...Option) *Server {
	s := &Server{
		echo:    echo.New(),
		service: service,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(s.requestID, s.logRequests)

	s.echo.GET("/kinds", s.kinds)
	s.echo.GET("/present", s.present)
	s.echo.GET("/find", s.find)
	s.echo.GET("/meta", s.meta)
	s.echo.GET("/sources", s.sources)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until the server is shut down
func (s *Server) Start(addr string) error {
	s.logger.Info("serving queries", "address", addr)
	if err := s.echo.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.ConfigurationErrorCode, "failed to start server on "+addr, err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Response().Header().Set(RequestIDHeader, id)
		return next(c)
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info("request",
			"request_id", c.Get(requestIDKey),
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration", time.Since(start),
		)
		return nil
	}
}

// errorBody is the JSON body of every failed request
type errorBody struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// handleError maps coded errors to statuses: malformed input is 400, unknown
// names are 404 and search failures are 500
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	id, _ := c.Get(requestIDKey).(string)
	body := errorBody{Error: err.Error(), RequestID: id}
	status := http.StatusInternalServerError

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	} else {
		code := errors.CodeOf(err)
		body.Code = code.String()
		switch code {
		case errors.SyntaxErrorCode, errors.ValidationErrorCode:
			status = http.StatusBadRequest
		case errors.ResolutionErrorCode:
			status = http.StatusNotFound
		}
		var coded errors.AnnoscopeError
		if stderrors.As(err, &coded) {
			body.Suggestions = coded.Suggestions()
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("query failed", "request_id", id, "error", err)
	}
	if writeErr := c.JSON(status, body); writeErr != nil {
		s.logger.Error("failed to write error response", "request_id", id, "error", writeErr)
	}
}

func (s *Server) kinds(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Kinds())
}

func (s *Server) present(c echo.Context) error {
	sel, kind, err := requireParams(c, "selector", "kind")
	if err != nil {
		return err
	}
	repeatable, err := boolParam(c, "repeatable")
	if err != nil {
		return err
	}
	result, err := s.service.Present(sel, kind, repeatable)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) find(c echo.Context) error {
	sel, kind, err := requireParams(c, "selector", "kind")
	if err != nil {
		return err
	}
	repeatable, err := boolParam(c, "repeatable")
	if err != nil {
		return err
	}
	all, err := boolParam(c, "all")
	if err != nil {
		return err
	}
	result, err := s.service.Find(sel, kind, repeatable, all)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) meta(c echo.Context) error {
	sel, marker, err := requireParams(c, "selector", "marker")
	if err != nil {
		return err
	}
	result, err := s.service.Meta(sel, marker)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) sources(c echo.Context) error {
	sel := c.QueryParam("selector")
	if sel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query parameter 'selector'")
	}
	result, err := s.service.Sources(sel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func requireParams(c echo.Context, first, second string) (string, string, error) {
	a, b := c.QueryParam(first), c.QueryParam(second)
	switch {
	case a == "":
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing query parameter '"+first+"'")
	case b == "":
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "missing query parameter '"+second+"'")
	}
	return a, b, nil
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, "query parameter '"+name+"' must be a boolean")
	}
	return v, nil
}
