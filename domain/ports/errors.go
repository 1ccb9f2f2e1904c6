package ports

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ═══════════════════════════════════════════════════════════════════════════════
// External error taxonomy
// ═══════════════════════════════════════════════════════════════════════════════

// ExternalError error จาก provider ภายนอก (Runway, Gemini, ElevenLabs, assembler)
// Transient = timeout, network, 429, 5xx ; อื่นๆ ถือว่า permanent
type ExternalError struct {
	Provider   string
	StatusCode int
	Transient  bool
	Message    string
	Err        error
}

func (e *ExternalError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// NewHTTPError จัดประเภทตาม status code
func NewHTTPError(provider string, statusCode int, message string) *ExternalError {
	return &ExternalError{
		Provider:   provider,
		StatusCode: statusCode,
		Transient:  IsTransientStatus(statusCode),
		Message:    message,
	}
}

// NewTransportError network error / timeout (transient เสมอ)
func NewTransportError(provider string, err error) *ExternalError {
	return &ExternalError{Provider: provider, Transient: true, Err: err}
}

// NewPermanentError malformed response หรือ input ที่ provider ไม่รับ
func NewPermanentError(provider, message string) *ExternalError {
	return &ExternalError{Provider: provider, Message: message}
}

// IsTransientStatus 429 และ 5xx
func IsTransientStatus(code int) bool {
	return code == 429 || code >= 500
}

// IsTransient ตรวจสอบว่า error ควร retry หรือไม่
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ext *ExternalError
	if errors.As(err, &ext) {
		return ext.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
