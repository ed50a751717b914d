package http

import (
	"errors"
	"net/http"
	"time"

	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/usecase/admin"
	"quorum-lending/internal/usecase/token"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the owner-only routes and the governance/pool reads.
// The owner check itself lives in the use cases.
type AdminHandler struct {
	admin  *admin.Usecase
	tokens *token.Usecase
}

func NewAdminHandler(a *admin.Usecase, t *token.Usecase) *AdminHandler {
	return &AdminHandler{admin: a, tokens: t}
}

type addMemberReq struct {
	Principal string `json:"principal" validate:"required,hex32"`
	Weight    uint64 `json:"weight"`
}

type votingPeriodReq struct {
	Seconds int64 `json:"seconds"`
}

type thresholdReq struct {
	Threshold uint64 `json:"threshold"`
}

type emergencyWithdrawReq struct {
	Asset       string `json:"asset"       validate:"required"`
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination" validate:"required,hex32"`
}

type mintReq struct {
	To     string `json:"to"     validate:"required,hex32"`
	Amount uint64 `json:"amount"`
}

func (h *AdminHandler) AddMember(c echo.Context) error {
	var req addMemberReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.admin.AddMember(c.Request().Context(), caller(c), req.Principal, req.Weight)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *AdminHandler) RemoveMember(c echo.Context) error {
	p, ok := principalParam(c)
	if !ok {
		return badRequest(c, "invalid principal path param")
	}
	if err := h.admin.RemoveMember(c.Request().Context(), caller(c), p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"removed": p})
}

func (h *AdminHandler) SetVotingPeriod(c echo.Context) error {
	var req votingPeriodReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.admin.SetVotingPeriod(c.Request().Context(), caller(c), time.Duration(req.Seconds)*time.Second)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) SetRequiredVotes(c echo.Context) error {
	var req thresholdReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.admin.SetRequiredVotes(c.Request().Context(), caller(c), req.Threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) EmergencyWithdraw(c echo.Context) error {
	var req emergencyWithdrawReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.admin.EmergencyWithdraw(c.Request().Context(), caller(c), admin.EmergencyWithdrawInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Mint(c echo.Context) error {
	var req mintReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.tokens.Mint(c.Request().Context(), caller(c), req.To, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) GetMember(c echo.Context) error {
	p, ok := principalParam(c)
	if !ok {
		return badRequest(c, "invalid principal path param")
	}
	dto, err := h.admin.GetMember(c.Request().Context(), p)
	if errors.Is(err, member.ErrNotAMember) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NotAMember"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) ListMembers(c echo.Context) error {
	out, err := h.admin.ListMembers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) Pool(c echo.Context) error {
	dto, err := h.admin.Pool(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Balance(c echo.Context) error {
	holder, ok := principalParam(c)
	if !ok {
		return badRequest(c, "invalid holder path param")
	}
	dto, err := h.tokens.BalanceOf(c.Request().Context(), holder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
