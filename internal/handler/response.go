package handler

import "github.com/labstack/echo/v4"

// response is the envelope every endpoint answers with: a success
// indicator, a human-readable message and an optional payload. Field
// validation failures carry the full message set under errors.
type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func ok(c echo.Context, msg string, data any) error {
	return c.JSON(200, response{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, response{Success: false, Message: msg})
}

func failValidation(c echo.Context, msg string, errs []string) error {
	return c.JSON(400, response{Success: false, Message: msg, Errors: errs})
}
