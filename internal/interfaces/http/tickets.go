package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"transit/internal/domain"
	"transit/internal/domain/purchases"
	"transit/internal/idempotency"
)

type PurchaseTicketRequest struct {
	UserID    string  `json:"userId" validate:"required"`
	TripIDs   []int64 `json:"tripIds" validate:"required,min=1,max=2,dive,gt=0"`
	RoundTrip bool    `json:"roundTrip"`
	Price     float64 `json:"price" validate:"gt=0"`
}

type PurchaseTicketResponse struct {
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	PurchaseID uuid.UUID `json:"purchase_id"`
}

type CancelTicketRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PurchaseResponse struct {
	PurchaseID uuid.UUID  `json:"purchase_id"`
	Status     string     `json:"status"`
	TicketID   *uuid.UUID `json:"ticket_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	TripIDs    []int64    `json:"trip_ids"`
}

func (s *Server) PurchaseTicketHandler(c echo.Context) error {
	var request PurchaseTicketRequest
	if err := bindAndValidate(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if key := c.Request().Header.Get(idempotency.Header); key != "" {
		ctx = idempotency.WithKey(ctx, key)
	}
	key, _ := idempotency.Key(ctx)

	purchase, err := s.ticketsService.InitiatePurchase(ctx, purchases.Request{
		UserID:         request.UserID,
		TripIDs:        request.TripIDs,
		RoundTrip:      request.RoundTrip,
		Price:          request.Price,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, PurchaseTicketResponse{
		Message:    "Ticket purchase initiated",
		Status:     "PENDING",
		PurchaseID: purchase.ID,
	})
}

func (s *Server) ListTicketsHandler(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return domain.NewValidationError("userId", "is required")
	}

	result, err := s.ticketsService.ListTickets(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) GetTicketHandler(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	ticket, err := s.ticketsService.GetTicket(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

func (s *Server) CancelTicketHandler(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var request CancelTicketRequest
	if err := bindAndValidate(c, &request); err != nil {
		return err
	}

	_, err = s.ticketsService.CancelTicket(c.Request().Context(), id, request.Reason)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) GetPurchaseHandler(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	purchase, err := s.ticketsService.GetPurchase(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PurchaseResponse{
		PurchaseID: purchase.ID,
		Status:     string(purchase.Status),
		TicketID:   purchase.TicketID,
		Reason:     purchase.Reason,
		TripIDs:    purchase.TripIDs,
	})
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "is not a valid UUID")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, request any) error {
	if err := c.Bind(request); err != nil {
		return domain.NewValidationError("body", "is not valid JSON")
	}
	return c.Validate(request)
}
