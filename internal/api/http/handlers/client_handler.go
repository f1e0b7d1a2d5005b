package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/dto"
	"github.com/spec-kit/intervention-service/internal/service"
)

// ClientHandler serves the client dashboard.
type ClientHandler struct {
	dashboards *service.DashboardService
}

// NewClientHandler constructs handler.
func NewClientHandler(dashboards *service.DashboardService) *ClientHandler {
	return &ClientHandler{dashboards: dashboards}
}

// Dashboard handles GET /dashboard/client.
func (h *ClientHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	board, err := h.dashboards.ForClient(c.UserContext(), actor)
	if err != nil {
		return err
	}

	resp := dto.ClientDashboardResponse{Interventions: interventionResponses(board.Interventions)}
	if board.Client != nil {
		client := clientResponse(board.Client)
		resp.Client = &client
	}
	return c.JSON(fiber.Map{"data": resp})
}
