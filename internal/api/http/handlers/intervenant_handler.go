package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/dto"
	"github.com/spec-kit/intervention-service/internal/service"
)

// IntervenantHandler serves the intervenant's own dashboard and actions.
type IntervenantHandler struct {
	dashboards   *service.DashboardService
	scheduling   *service.SchedulingService
	sessions     *service.SessionService
	cancellation *service.CancellationService
}

// NewIntervenantHandler constructs handler.
func NewIntervenantHandler(
	dashboards *service.DashboardService,
	scheduling *service.SchedulingService,
	sessions *service.SessionService,
	cancellation *service.CancellationService,
) *IntervenantHandler {
	return &IntervenantHandler{
		dashboards:   dashboards,
		scheduling:   scheduling,
		sessions:     sessions,
		cancellation: cancellation,
	}
}

// Dashboard handles GET /dashboard/intervenant.
func (h *IntervenantHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	board, err := h.dashboards.ForIntervenant(c.UserContext(), actor, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IntervenantDashboardResponse{
		Upcoming: interventionResponses(board.Upcoming),
		History:  interventionResponses(board.History),
		Clients:  clientResponses(board.Clients),
	}})
}

// Schedule handles POST /interventions/schedule.
func (h *IntervenantHandler) Schedule(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	iv, err := h.scheduling.Schedule(c.UserContext(), actor, scheduleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": interventionResponse(iv)})
}

// Scan handles POST /interventions/scan.
func (h *IntervenantHandler) Scan(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ScanRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.sessions.Toggle(c.UserContext(), actor, service.ScanInput{
		ServiceID: req.ServiceID,
		ClientID:  req.ClientID,
	})
	if err != nil {
		return err
	}
	status := http.StatusOK
	if result.Action == service.ToggleOpened {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.ToggleResponse{
		Action:       string(result.Action),
		Intervention: interventionResponse(result.Intervention),
	}})
}

// RequestDelete handles POST /interventions/:id/request-delete.
func (h *IntervenantHandler) RequestDelete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.DeletionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	iv, err := h.cancellation.RequestDeletion(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": interventionResponse(iv)})
}

func scheduleInput(req dto.ScheduleRequest) service.ScheduleInput {
	return service.ScheduleInput{
		IntervenantID: req.IntervenantID,
		ClientID:      req.ClientID,
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		Time:          req.Time,
		Description:   req.Description,
	}
}
