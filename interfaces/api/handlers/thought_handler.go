package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

type ThoughtHandler struct {
	thoughtService services.ThoughtService
}

func NewThoughtHandler(thoughtService services.ThoughtService) *ThoughtHandler {
	return &ThoughtHandler{thoughtService: thoughtService}
}

// Create POST /api/v1/thoughts
func (h *ThoughtHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.CreateThoughtRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errs := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errs)
		return utils.ValidationErrorResponse(c, errs)
	}

	thought, err := h.thoughtService.CreateThought(ctx, user.ID, &req)
	if err != nil {
		logger.WarnContext(ctx, "Failed to create thought", "error", err)
		return utils.BadRequestResponse(c, err.Error())
	}

	logger.InfoContext(ctx, "Thought created", "thought_id", thought.ID, "user_id", user.ID)
	return utils.CreatedResponse(c, dto.ThoughtToThoughtResponse(thought))
}

// GetByID GET /api/v1/thoughts/:id
func (h *ThoughtHandler) GetByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid thought ID")
	}

	thought, err := h.thoughtService.GetThought(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrThoughtNotFound) {
			return utils.NotFoundResponse(c, "Thought not found")
		}
		logger.ErrorContext(ctx, "Failed to get thought", "thought_id", id, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, dto.ThoughtToThoughtResponse(thought))
}
