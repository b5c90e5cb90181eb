package middleware

import (
	"github.com/labstack/echo/v4"
)

// errorBody matches the JSON error shape of the timeline API.
type errorBody struct {
	Error string `json:"error"`
}

func jsonError(c echo.Context, status int, msg string) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(status, errorBody{Error: msg})
}
