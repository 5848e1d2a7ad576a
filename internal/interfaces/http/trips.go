package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/labstack/echo/v4"

	"transit/internal/domain"
	"transit/internal/domain/trips"
)

type CreateTripRequest struct {
	DepartureTime time.Time `json:"departure_time" validate:"required"`
	Capacity      int       `json:"capacity" validate:"gt=0"`
}

type UpdateTripRequest struct {
	Status        *string    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	DepartureTime *time.Time `json:"departure_time"`
	Capacity      *int       `json:"capacity" validate:"omitempty,gt=0"`
}

func (r UpdateTripRequest) toUpdate() trips.Update {
	update := trips.Update{
		DepartureTime: r.DepartureTime,
		Capacity:      r.Capacity,
	}
	if r.Status != nil {
		update.Status = pointer.To(trips.Status(pointer.Get(r.Status)))
	}
	return update
}

func (s *Server) CreateTripHandler(c echo.Context) error {
	var request CreateTripRequest
	if err := bindAndValidate(c, &request); err != nil {
		return err
	}

	trip, err := s.tripsService.CreateTrip(c.Request().Context(), request.DepartureTime, request.Capacity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, trip)
}

func (s *Server) ListTripsHandler(c echo.Context) error {
	var day *time.Time
	if date := c.QueryParam("date"); date != "" {
		parsed, err := parseDate("date", date)
		if err != nil {
			return err
		}
		day = &parsed
	}

	result, err := s.tripsService.ListTrips(c.Request().Context(), day)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// GetTripsByIDsHandler serves GET /trips/by-ids?ids=1,2.
func (s *Server) GetTripsByIDsHandler(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("ids"))
	if raw == "" {
		return domain.NewValidationError("ids", "trip ids are required")
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return domain.NewValidationError("ids", "must be a comma separated list of trip ids")
		}
		ids = append(ids, id)
	}

	result, err := s.tripsService.GetTrips(c.Request().Context(), ids)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ListUpcomingTripsHandler serves GET /trips/upcoming?startDate=YYYY-MM-DD.
func (s *Server) ListUpcomingTripsHandler(c echo.Context) error {
	startDate := c.QueryParam("startDate")
	if startDate == "" {
		return domain.NewValidationError("startDate", "is required")
	}
	from, err := parseDate("startDate", startDate)
	if err != nil {
		return err
	}

	result, err := s.tripsService.ListUpcomingTrips(c.Request().Context(), from)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) GetTripHandler(c echo.Context) error {
	id, err := tripIDParam(c)
	if err != nil {
		return err
	}

	trip, err := s.tripsService.GetTrip(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, trip)
}

func (s *Server) UpdateTripHandler(c echo.Context) error {
	id, err := tripIDParam(c)
	if err != nil {
		return err
	}

	var request UpdateTripRequest
	if err := bindAndValidate(c, &request); err != nil {
		return err
	}

	trip, err := s.tripsService.UpdateTrip(c.Request().Context(), id, request.toUpdate())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, trip)
}

func tripIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// parseDate accepts a plain date or a full RFC 3339 timestamp.
func parseDate(field, value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Time{}, domain.NewValidationError(field, "must be formatted as YYYY-MM-DD")
}
