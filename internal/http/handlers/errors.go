package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"signature-service/internal/domain"
)

// RequestError is a failure to answer with {error, details}. Message is
// always shown; Err only becomes the details text in development mode.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

// pipelineError classifies a pipeline failure by its domain sentinel.
func pipelineError(message string, err error) *RequestError {
	status := fiber.StatusInternalServerError
	if errors.Is(err, domain.ErrValidation) {
		status = fiber.StatusBadRequest
	}
	return &RequestError{Status: status, Message: message, Err: err}
}

const hiddenDetails = "Unknown error"

// ErrorHandler renders every error as {error, details}. Internal messages
// reach the client only when development is true.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		details := err.Error()

		var reqErr *RequestError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &reqErr):
			status, message = reqErr.Status, reqErr.Message
			if reqErr.Err != nil {
				details = reqErr.Err.Error()
			}
		case errors.As(err, &fiberErr):
			status, message = fiberErr.Code, fiberErr.Message
			details = ""
		}

		body := fiber.Map{"error": message}
		if details != "" {
			if !development {
				details = hiddenDetails
			}
			body["details"] = details
		}
		return c.Status(status).JSON(body)
	}
}

// NotFound is the catch-all for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, "Endpoint not found")
}
