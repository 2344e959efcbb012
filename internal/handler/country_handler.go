package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/countries"
	"github.com/suteetoe/perftrack/internal/response"
)

// ListCountries returns the static country reference list
func ListCountries(c echo.Context) error {
	return response.Success(c, http.StatusOK, countries.All())
}
