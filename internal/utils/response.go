package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Success sends the standard success envelope.
func Success(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"success": true,
		"code":    status,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// Error sends the standard error envelope. errorCode is the machine-readable
// code clients branch on; message is for humans.
func Error(c *fiber.Ctx, status int, message, errorCode string) error {
	body := fiber.Map{
		"success": false,
		"code":    status,
		"message": message,
	}
	if errorCode != "" {
		body["errorCode"] = errorCode
	}
	return c.Status(status).JSON(body)
}

// Unauthorized sends a 401 error envelope.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

// NotFound sends a 404 error envelope.
func NotFound(c *fiber.Ctx, message, errorCode string) error {
	return Error(c, fiber.StatusNotFound, message, errorCode)
}

// Internal sends a generic 500. Storage detail never reaches the response
// body; the caller is expected to have logged the underlying error.
func Internal(c *fiber.Ctx, errorCode string) error {
	return Error(c, fiber.StatusInternalServerError, "Internal server error", errorCode)
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// SuccessResponseStruct defines the schema for success responses
type SuccessResponseStruct struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
