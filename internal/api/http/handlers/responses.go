package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intervention-service/internal/api/dto"
	"github.com/spec-kit/intervention-service/internal/auth"
	"github.com/spec-kit/intervention-service/internal/domain"
	apperrors "github.com/spec-kit/intervention-service/pkg/util"
)

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

// parseBody decodes an optional JSON body.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func interventionResponse(iv *domain.Intervention) dto.InterventionResponse {
	return dto.InterventionResponse{
		ID:                 iv.ID,
		StartTime:          iv.StartTime,
		EndTime:            iv.EndTime,
		Description:        iv.Description,
		Status:             string(iv.Status),
		CancellationReason: iv.CancellationReason,
		IntervenantID:      iv.IntervenantID,
		ClientID:           iv.ClientID,
		ServiceID:          iv.ServiceID,
		CreatedAt:          iv.CreatedAt,
	}
}

func interventionResponses(items []domain.Intervention) []dto.InterventionResponse {
	resp := make([]dto.InterventionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, interventionResponse(&items[i]))
	}
	return resp
}

func userResponse(user *domain.User) dto.UserResponse {
	serviceIDs := user.ServiceIDs
	if serviceIDs == nil {
		serviceIDs = []string{}
	}
	clientIDs := user.ClientIDs
	if clientIDs == nil {
		clientIDs = []string{}
	}
	return dto.UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Role:       string(user.Role),
		ServiceIDs: serviceIDs,
		ClientIDs:  clientIDs,
		CreatedAt:  user.CreatedAt,
	}
}

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Address:   client.Address,
		UserID:    client.UserID,
		CreatedAt: client.CreatedAt,
	}
}

func clientResponses(items []domain.Client) []dto.ClientResponse {
	resp := make([]dto.ClientResponse, 0, len(items))
	for i := range items {
		resp = append(resp, clientResponse(&items[i]))
	}
	return resp
}
