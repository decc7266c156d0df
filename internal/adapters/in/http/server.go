// Package http exposes a small read-only API over the order and delivery
// projections. All writes flow through the event pipeline; this server only
// answers lookups.
package http

import (
	"net/http"
	"time"

	"grubdash/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and the query handlers.
type Server struct {
	getCustomerOrdersHandler    queries.GetCustomerOrdersQueryHandler
	getPartnerDeliveriesHandler queries.GetPartnerDeliveriesQueryHandler
}

// NewServer creates a new HTTP server with the required query handlers.
func NewServer(
	getCustomerOrdersHandler queries.GetCustomerOrdersQueryHandler,
	getPartnerDeliveriesHandler queries.GetPartnerDeliveriesQueryHandler,
) *Server {
	return &Server{
		getCustomerOrdersHandler:    getCustomerOrdersHandler,
		getPartnerDeliveriesHandler: getPartnerDeliveriesHandler,
	}
}

// RegisterRoutes attaches the server's routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/api/v1/customers/:customer_id/orders", s.GetCustomerOrders)
	e.GET("/api/v1/partners/:partner_id/deliveries", s.GetPartnerDeliveries)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type orderResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Amount     float64   `json:"amount"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type deliveryResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	OrderIDs  []string  `json:"order_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// GetCustomerOrders handles GET /api/v1/customers/:customer_id/orders.
func (s *Server) GetCustomerOrders(ctx echo.Context) error {
	query, err := queries.NewGetCustomerOrdersQuery(ctx.Param("customer_id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid customer id: " + err.Error(),
		})
	}

	orders, err := s.getCustomerOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	response := make([]orderResponse, len(orders))
	for i, customerOrder := range orders {
		response[i] = orderResponse{
			ID:         customerOrder.ID,
			Status:     customerOrder.Status,
			Amount:     customerOrder.Amount,
			DeliveryID: customerOrder.DeliveryID,
			CreatedAt:  customerOrder.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetPartnerDeliveries handles GET /api/v1/partners/:partner_id/deliveries.
func (s *Server) GetPartnerDeliveries(ctx echo.Context) error {
	query, err := queries.NewGetPartnerDeliveriesQuery(ctx.Param("partner_id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid partner id: " + err.Error(),
		})
	}

	deliveries, err := s.getPartnerDeliveriesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve deliveries",
		})
	}

	response := make([]deliveryResponse, len(deliveries))
	for i, partnerDelivery := range deliveries {
		response[i] = deliveryResponse{
			ID:        partnerDelivery.ID,
			Status:    partnerDelivery.Status,
			OrderIDs:  partnerDelivery.OrderIDs,
			CreatedAt: partnerDelivery.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}
