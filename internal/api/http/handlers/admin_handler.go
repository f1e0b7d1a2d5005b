package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/dto"
	"github.com/spec-kit/intervention-service/internal/service"
)

// AdminHandler exposes administrator endpoints.
type AdminHandler struct {
	dashboards   *service.DashboardService
	scheduling   *service.SchedulingService
	cancellation *service.CancellationService
	roster       *service.RosterService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	dashboards *service.DashboardService,
	scheduling *service.SchedulingService,
	cancellation *service.CancellationService,
	roster *service.RosterService,
) *AdminHandler {
	return &AdminHandler{
		dashboards:   dashboards,
		scheduling:   scheduling,
		cancellation: cancellation,
		roster:       roster,
	}
}

// Dashboard handles GET /dashboard/admin.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	board, err := h.dashboards.ForAdmin(c.UserContext(), actor)
	if err != nil {
		return err
	}

	intervenants := make([]dto.UserResponse, 0, len(board.Intervenants))
	for i := range board.Intervenants {
		intervenants = append(intervenants, userResponse(&board.Intervenants[i]))
	}
	services := make([]dto.ServiceResponse, 0, len(board.Services))
	for _, svc := range board.Services {
		services = append(services, dto.ServiceResponse{ID: svc.ID, Name: svc.Name})
	}
	return c.JSON(fiber.Map{"data": dto.AdminDashboardResponse{
		Interventions:    interventionResponses(board.Interventions),
		Intervenants:     intervenants,
		Clients:          clientResponses(board.Clients),
		Services:         services,
		PendingDeletions: interventionResponses(board.PendingDeletions),
	}})
}

// Schedule handles POST /admin/interventions/schedule.
func (h *AdminHandler) Schedule(c *fiber.Ctx) error {
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

// Resolve handles POST /admin/interventions/:id/resolve.
func (h *AdminHandler) Resolve(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	action := service.ResolveAction(req.Action)
	iv, err := h.cancellation.ResolveDeletion(c.UserContext(), actor, c.Params("id"), action)
	if err != nil {
		return err
	}
	if action == service.ResolveApprove {
		return c.JSON(fiber.Map{"data": fiber.Map{"id": iv.ID, "deleted": true}})
	}
	return c.JSON(fiber.Map{"data": interventionResponse(iv)})
}

// PendingDeletions handles GET /admin/deletion-requests.
func (h *AdminHandler) PendingDeletions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	pending, err := h.cancellation.ListPendingDeletions(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": interventionResponses(pending)})
}

// CreateIntervenant handles POST /admin/intervenants.
func (h *AdminHandler) CreateIntervenant(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.IntervenantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.roster.CreateIntervenant(c.UserContext(), actor, intervenantInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateIntervenant handles PUT /admin/intervenants/:id.
func (h *AdminHandler) UpdateIntervenant(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.IntervenantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.roster.UpdateIntervenant(c.UserContext(), actor, c.Params("id"), intervenantInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// IntervenantDetails handles GET /admin/intervenants/:id.
func (h *AdminHandler) IntervenantDetails(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	details, err := h.roster.IntervenantDetails(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IntervenantDetailResponse{
		User:          userResponse(details.User),
		Interventions: interventionResponses(details.Interventions),
	}})
}

// CreateClient handles POST /admin/clients.
func (h *AdminHandler) CreateClient(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	client, err := h.roster.CreateClient(c.UserContext(), actor, service.ClientInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// ClientDetails handles GET /admin/clients/:id.
func (h *AdminHandler) ClientDetails(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	details, err := h.roster.ClientDetails(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ClientDetailResponse{
		Client:        clientResponse(details.Client),
		Interventions: interventionResponses(details.Interventions),
	}})
}

func intervenantInput(req dto.IntervenantRequest) service.IntervenantInput {
	return service.IntervenantInput{
		Username:   req.Username,
		Password:   req.Password,
		ServiceIDs: req.ServiceIDs,
		ClientIDs:  req.ClientIDs,
	}
}
