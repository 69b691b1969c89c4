// Package httpapi exposes a small read-only Echo API over the catalog:
// health, stats, and venue/event lookups. All writes go through the CLI.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"gigcity.app/catalog/internal/db"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

type venueItem struct {
	VenueID      int64    `json:"venue_id"`
	VenueUUID    string   `json:"venue_uuid"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Address      *string  `json:"address,omitempty"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	Neighborhood *string  `json:"neighborhood,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	VenueType    *string  `json:"venue_type,omitempty"`
	Website      *string  `json:"website,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Instagram    *string  `json:"instagram,omitempty"`
	Description  *string  `json:"description,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	Hours        *string  `json:"hours,omitempty"`
	Vibes        []string `json:"vibes,omitempty"`
	Active       bool     `json:"active"`
}

type eventItem struct {
	EventID     int64    `json:"event_id"`
	EventUUID   string   `json:"event_uuid"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	StartDate   string   `json:"start_date"`
	StartTime   *string  `json:"start_time,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	EndTime     *string  `json:"end_time,omitempty"`
	IsAllDay    bool     `json:"is_all_day"`
	Category    *string  `json:"category,omitempty"`
	Subcategory *string  `json:"subcategory,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PriceMin    *float64 `json:"price_min,omitempty"`
	PriceMax    *float64 `json:"price_max,omitempty"`
	IsFree      *bool    `json:"is_free,omitempty"`
	TicketURL   *string  `json:"ticket_url,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
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

	return &Server{
		pool:   pool,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
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
	api.GET("/stats", s.handleStats)
	api.GET("/venues", s.handleVenues)
	api.GET("/venues/:venue_id", s.handleVenueDetail)
	api.GET("/venues/:venue_id/events", s.handleVenueEvents)

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

	s.logger.Info().Str("addr", addr).Msg("catalog api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("catalog api server stopped")
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
	return success(c, map[string]any{
		"service": "catalog",
		"time":    time.Now().UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.GetCatalogStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleVenues(c echo.Context) error {
	afterID, err := parseNonNegativeInt64(c.QueryParam("after_id"), 0)
	if err != nil {
		return failValidation(c, map[string]string{"after_id": err.Error()})
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	venues, err := s.pool.ListActiveVenues(c.Request().Context(), afterID, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query venues failed")
		return internalError(c, "Failed to load venues")
	}

	items := make([]venueItem, 0, len(venues))
	for i := range venues {
		items = append(items, venueToItem(&venues[i]))
	}

	var nextAfterID *int64
	if len(venues) == limit {
		last := venues[len(venues)-1].VenueID
		nextAfterID = &last
	}
	return success(c, map[string]any{
		"items":         items,
		"next_after_id": nextAfterID,
		"limit":         limit,
	})
}

func (s *Server) handleVenueDetail(c echo.Context) error {
	venueID, err := parseVenueID(c.Param("venue_id"))
	if err != nil {
		return failValidation(c, map[string]string{"venue_id": err.Error()})
	}

	venue, err := s.pool.GetVenue(c.Request().Context(), venueID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Venue not found")
		}
		s.logger.Error().Err(err).Int64("venue_id", venueID).Msg("query venue failed")
		return internalError(c, "Failed to load venue")
	}
	return success(c, venueToItem(venue))
}

func (s *Server) handleVenueEvents(c echo.Context) error {
	venueID, err := parseVenueID(c.Param("venue_id"))
	if err != nil {
		return failValidation(c, map[string]string{"venue_id": err.Error()})
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return failValidation(c, map[string]string{"date": "is required"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return failValidation(c, map[string]string{"date": "must be YYYY-MM-DD"})
	}

	events, err := s.pool.ListEventsByVenuesAndDate(c.Request().Context(), []int64{venueID}, date)
	if err != nil {
		s.logger.Error().Err(err).Int64("venue_id", venueID).Str("date", date).Msg("query events failed")
		return internalError(c, "Failed to load events")
	}

	items := make([]eventItem, 0, len(events))
	for i := range events {
		items = append(items, eventToItem(&events[i]))
	}
	return success(c, map[string]any{
		"items":    items,
		"venue_id": venueID,
		"date":     date,
	})
}

func venueToItem(v *db.Venue) venueItem {
	return venueItem{
		VenueID:      v.VenueID,
		VenueUUID:    v.VenueUUID,
		Name:         v.Name,
		Slug:         v.Slug,
		Address:      v.Address,
		City:         v.City,
		State:        v.State,
		Neighborhood: v.Neighborhood,
		Latitude:     v.Latitude,
		Longitude:    v.Longitude,
		VenueType:    v.VenueType,
		Website:      v.Website,
		Phone:        v.Phone,
		Instagram:    v.Instagram,
		Description:  v.Description,
		ImageURL:     v.ImageURL,
		Hours:        v.Hours,
		Vibes:        v.Vibes,
		Active:       v.Active,
	}
}

func eventToItem(ev *db.Event) eventItem {
	return eventItem{
		EventID:     ev.EventID,
		EventUUID:   ev.EventUUID,
		Title:       ev.Title,
		Description: ev.Description,
		StartDate:   ev.StartDate,
		StartTime:   ev.StartTime,
		EndDate:     ev.EndDate,
		EndTime:     ev.EndTime,
		IsAllDay:    ev.IsAllDay,
		Category:    ev.Category,
		Subcategory: ev.Subcategory,
		Tags:        ev.Tags,
		PriceMin:    ev.PriceMin,
		PriceMax:    ev.PriceMax,
		IsFree:      ev.IsFree,
		TicketURL:   ev.TicketURL,
		ImageURL:    ev.ImageURL,
	}
}

func parseVenueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return id, nil
}

func parseNonNegativeInt64(raw string, defaultValue int64) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return value, nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
