package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/dto"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/services"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

const (
	defaultRunLimit = 20
)

type RunHandler struct {
	pipelineService services.PipelineService
}

func NewRunHandler(pipelineService services.PipelineService) *RunHandler {
	return &RunHandler{pipelineService: pipelineService}
}

// Trigger เริ่ม (หรือ resume) pipeline ของ thought แล้วตอบทันที
// POST /api/v1/runs
func (h *RunHandler) Trigger(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.TriggerRunRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errs := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errs)
		return utils.ValidationErrorResponse(c, errs)
	}

	result, err := h.pipelineService.Trigger(ctx, req.ThoughtID, req.Regenerate)
	if err != nil {
		if errors.Is(err, services.ErrThoughtNotFound) {
			return utils.NotFoundResponse(c, "Thought not found")
		}
		logger.ErrorContext(ctx, "Failed to trigger run", "thought_id", req.ThoughtID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	logger.InfoContext(ctx, "Run triggered",
		"run_id", result.Run.ID,
		"thought_id", req.ThoughtID,
		"user_id", user.ID,
		"started", result.Started,
		"start_layer", int(result.StartLayer),
		"regenerate", req.Regenerate,
	)

	return utils.AcceptedResponse(c, toTriggerResponse(result))
}

func toTriggerResponse(result *services.TriggerResult) dto.TriggerRunResponse {
	resp := dto.TriggerRunResponse{
		RunID:        result.Run.ID,
		Status:       string(result.Run.Status),
		CurrentLayer: int(models.LayerForStatus(result.Run.Status)),
		Started:      result.Started,
		Attempt:      result.Attempt,
	}
	if result.Started {
		resp.StartLayer = int(result.StartLayer)
	}
	return resp
}

// GetStatus status poll อ่านอย่างเดียว
// GET /api/v1/runs/:id
func (h *RunHandler) GetStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	runID, err := parseRunID(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid run ID")
	}

	status, err := h.pipelineService.GetRunStatus(ctx, runID)
	if err != nil {
		return h.runError(c, runID, err)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return utils.SuccessResponse(c, status)
}

// GetHistory run + step log เรียงตามเวลา
// GET /api/v1/runs/:id/history
func (h *RunHandler) GetHistory(c *fiber.Ctx) error {
	ctx := c.UserContext()

	runID, err := parseRunID(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid run ID")
	}

	history, err := h.pipelineService.GetRunHistory(ctx, runID)
	if err != nil {
		return h.runError(c, runID, err)
	}

	return utils.SuccessResponse(c, history)
}

// List GET /api/v1/runs?status=&page=&limit=
func (h *RunHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.RunFilterRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid query parameters")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	page, limit, offset := req.Resolve(defaultRunLimit)
	runs, total, err := h.pipelineService.ListRuns(ctx, models.RunStatus(req.Status), offset, limit)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list runs", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	items := make([]dto.RunSummaryResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.RunToSummaryResponse(run))
	}
	return utils.PaginatedSuccessResponse(c, items, total, page, limit)
}

func (h *RunHandler) runError(c *fiber.Ctx, runID uuid.UUID, err error) error {
	if errors.Is(err, services.ErrRunNotFound) {
		return utils.NotFoundResponse(c, "Run not found")
	}
	logger.ErrorContext(c.UserContext(), "Failed to load run", "run_id", runID, "error", err)
	return utils.InternalServerErrorResponse(c)
}

func parseRunID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
