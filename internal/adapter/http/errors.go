package http

import (
	"errors"
	"log/slog"
	"net/http"

	"quorum-lending/internal/domain/ledger"
	"quorum-lending/internal/domain/loan"
	"quorum-lending/internal/domain/member"
	"quorum-lending/internal/domain/platform"
	"quorum-lending/pkg/guard"
	"quorum-lending/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// First match wins: a transfer that failed because of re-entry reports the
// re-entry.
var errorTable = []errorMapping{
	{guard.ErrReentrantCall, http.StatusConflict, "ReentrantCall"},

	{loan.ErrInvalidAmount, http.StatusBadRequest, "InvalidAmount"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "InvalidAmount"},
	{loan.ErrInvalidCreditScore, http.StatusBadRequest, "InvalidCreditScore"},
	{loan.ErrInvalidLoanID, http.StatusBadRequest, "InvalidLoanId"},
	{member.ErrInvalidWeight, http.StatusBadRequest, "InvalidWeight"},
	{platform.ErrInvalidThreshold, http.StatusBadRequest, "InvalidThreshold"},
	{platform.ErrPeriodTooShort, http.StatusBadRequest, "PeriodTooShort"},
	{platform.ErrUnknownAsset, http.StatusBadRequest, "UnknownAsset"},

	{member.ErrNotAGovernor, http.StatusForbidden, "NotAGovernor"},
	{loan.ErrNotBorrower, http.StatusForbidden, "NotBorrower"},
	{platform.ErrNotOwner, http.StatusForbidden, "NotOwner"},

	{loan.ErrAlreadyVoted, http.StatusConflict, "AlreadyVoted"},
	{loan.ErrAlreadyResolved, http.StatusConflict, "AlreadyResolved"},
	{loan.ErrNotApproved, http.StatusConflict, "NotApproved"},
	{loan.ErrNotFundedOrAlreadyRepaid, http.StatusConflict, "NotFundedOrAlreadyRepaid"},
	{member.ErrDuplicateMember, http.StatusConflict, "DuplicateMember"},
	{member.ErrNotAMember, http.StatusConflict, "NotAMember"},
	{loan.ErrVotingClosed, http.StatusConflict, "VotingClosed"},
	{loan.ErrVotingStillOpen, http.StatusConflict, "VotingStillOpen"},
	{loan.ErrTallyOverflow, http.StatusConflict, "TallyOverflow"},

	{loan.ErrInsufficientPoolFunds, http.StatusPaymentRequired, "InsufficientPoolFunds"},
	{loan.ErrTransferFailed, http.StatusBadGateway, "TransferFailed"},

	{platform.ErrNotInitialized, http.StatusServiceUnavailable, "NotInitialized"},
}

// StatusFor maps a use-case error to its HTTP status and stable error code.
// Unknown errors are internal.
func StatusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ""
}

func writeError(c echo.Context, err error) error {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.CtxError(c.Request().Context(), "request failed", err,
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
		)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate writes the 400/422 response itself and reports whether the
// handler may continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
