package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Response envelope เดียวกันทุก endpoint: {success, data | error}
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Meta pagination ของ list endpoint
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnavailable   = "SERVICE_UNAVAILABLE"
)

var statusCodes = map[int]string{
	fiber.StatusBadRequest:          ErrCodeBadRequest,
	fiber.StatusUnauthorized:        ErrCodeUnauthorized,
	fiber.StatusForbidden:           ErrCodeForbidden,
	fiber.StatusNotFound:            ErrCodeNotFound,
	fiber.StatusConflict:            ErrCodeConflict,
	fiber.StatusUnprocessableEntity: ErrCodeValidation,
	fiber.StatusServiceUnavailable:  ErrCodeUnavailable,
}

// CodeForStatus error code ของ HTTP status; ไม่รู้จักถือเป็น internal
func CodeForStatus(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status < fiber.StatusInternalServerError {
		return ErrCodeBadRequest
	}
	return ErrCodeInternalError
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

func SuccessResponse(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, data)
}

func CreatedResponse(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusCreated, data)
}

// AcceptedResponse งานถูกรับแล้วแต่ยังทำต่อใน background
func AcceptedResponse(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusAccepted, data)
}

func PaginatedSuccessResponse(c *fiber.Ctx, data any, total int64, page, limit int) error {
	if limit < 1 {
		limit = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// ErrorResponse แนบ request id (ถ้ามี) ให้ client อ้างอิงกับ log ได้
func ErrorResponse(c *fiber.Ctx, statusCode int, code, message string, details any) error {
	info := &ErrorInfo{Code: code, Message: message, Details: details}
	if rid, isStr := c.Locals("request_id").(string); isStr {
		info.RequestID = rid
	}
	return c.Status(statusCode).JSON(Response{Success: false, Error: info})
}

func fail(c *fiber.Ctx, status int, message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return ErrorResponse(c, status, CodeForStatus(status), message, nil)
}

func ValidationErrorResponse(c *fiber.Ctx, details any) error {
	return ErrorResponse(c, fiber.StatusBadRequest, ErrCodeValidation, "Validation failed", details)
}

func BadRequestResponse(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, message, "Bad request")
}

func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusUnauthorized, message, "Unauthorized")
}

func NotFoundResponse(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, message, "Resource not found")
}

func InternalServerErrorResponse(c *fiber.Ctx) error {
	return fail(c, fiber.StatusInternalServerError, "", "Internal server error")
}

func ServiceUnavailableResponse(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusServiceUnavailable, message, "Service unavailable")
}
