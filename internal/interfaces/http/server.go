package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transit/internal/domain/purchases"
	"transit/internal/domain/tickets"
	"transit/internal/domain/trips"
)

//go:generate mockgen -destination=mocks/tickets_service_mock.go -package=mocks . TicketsService
type TicketsService interface {
	InitiatePurchase(ctx context.Context, req purchases.Request) (purchases.Purchase, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (purchases.Purchase, error)
	GetTicket(ctx context.Context, id uuid.UUID) (tickets.Ticket, error)
	ListTickets(ctx context.Context, userID string) ([]tickets.Ticket, error)
	CancelTicket(ctx context.Context, id uuid.UUID, reason string) (tickets.Ticket, error)
}

//go:generate mockgen -destination=mocks/trips_service_mock.go -package=mocks . TripsService
type TripsService interface {
	CreateTrip(ctx context.Context, departure time.Time, capacity int) (trips.Trip, error)
	GetTrip(ctx context.Context, id int64) (trips.Trip, error)
	ListTrips(ctx context.Context, day *time.Time) ([]trips.Trip, error)
	GetTrips(ctx context.Context, ids []int64) ([]trips.Trip, error)
	ListUpcomingTrips(ctx context.Context, from time.Time) ([]trips.Trip, error)
	UpdateTrip(ctx context.Context, id int64, update trips.Update) (trips.Trip, error)
}

type Server struct {
	e *echo.Echo

	ticketsService TicketsService
	tripsService   TripsService
}

// NewServer registers the routes of the services that are not nil.
func NewServer(
	e *echo.Echo,
	ticketsService TicketsService,
	tripsService TripsService,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:              e,
		ticketsService: ticketsService,
		tripsService:   tripsService,
	}

	e.Validator = NewValidator()
	e.HTTPErrorHandler = HandleError

	if ticketsService != nil {
		e.POST("/tickets", srv.PurchaseTicketHandler)
		e.GET("/tickets", srv.ListTicketsHandler)
		e.GET("/tickets/:id", srv.GetTicketHandler)
		e.POST("/tickets/:id/cancel", srv.CancelTicketHandler)
		e.GET("/purchases/:id", srv.GetPurchaseHandler)
	}

	if tripsService != nil {
		e.POST("/trips", srv.CreateTripHandler)
		e.GET("/trips", srv.ListTripsHandler)
		e.GET("/trips/by-ids", srv.GetTripsByIDsHandler)
		e.GET("/trips/upcoming", srv.ListUpcomingTripsHandler)
		e.GET("/trips/:id", srv.GetTripHandler)
		e.PUT("/trips/:id", srv.UpdateTripHandler)
	}

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				WithField("method", c.Request().Method).
				Info("Handling a request")

			err := next(c)

			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})
	return srv
}

func (s *Server) Start(addr string) error {
	err := s.e.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
