package http

import (
	"strconv"
	"strings"

	"quorum-lending/internal/adapter/middleware"
	"quorum-lending/pkg/principal"

	"github.com/labstack/echo/v4"
)

// caller returns the Ax-Principal-Id of the request, or "" when absent or malformed.
func caller(c echo.Context) string {
	p := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderPrincipalID))
	if !principal.Valid(p) {
		return ""
	}
	return p
}

func loanIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	return id, err == nil
}

func principalParam(c echo.Context) (string, bool) {
	p := c.Param("principal")
	if p == "" {
		p = c.Param("holder")
	}
	return p, principal.Valid(p)
}
