package types

import "fmt"

// CustomError is an error carrying the HTTP status and machine-readable code
// to emit for it. The global fiber error handler translates it.
type CustomError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [%s]", e.Code, e.Message, e.ErrorCode)
}
