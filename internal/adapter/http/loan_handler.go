package http

import (
	"net/http"

	"quorum-lending/internal/usecase/loan"
	"quorum-lending/internal/usecase/voting"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	loans *loan.Usecase
	votes *voting.Usecase
}

func NewLoanHandler(loans *loan.Usecase, votes *voting.Usecase) *LoanHandler {
	return &LoanHandler{loans: loans, votes: votes}
}

type requestLoanReq struct {
	Amount      uint64 `json:"amount"`
	CreditScore int    `json:"credit_score"`
}

type castVoteReq struct {
	Support *bool `json:"support" validate:"required"`
}

// RequestLoan opens a loan for the calling principal.
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	borrower := caller(c)
	if borrower == "" {
		return badRequest(c, "missing or invalid Ax-Principal-Id")
	}
	var req requestLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.loans.Request(c.Request().Context(), loan.RequestLoanInput{
		Borrower:    borrower,
		Amount:      req.Amount,
		CreditScore: req.CreditScore,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	dto, err := h.loans.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListBorrowerLoans(c echo.Context) error {
	borrower, ok := principalParam(c)
	if !ok {
		return badRequest(c, "invalid principal path param")
	}
	dto, err := h.loans.ListByBorrower(c.Request().Context(), borrower)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) HasVoted(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	voter, ok := principalParam(c)
	if !ok {
		return badRequest(c, "invalid principal path param")
	}
	dto, err := h.loans.HasVoted(c.Request().Context(), id, voter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) CastVote(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	voter := caller(c)
	if voter == "" {
		return badRequest(c, "missing or invalid Ax-Principal-Id")
	}
	var req castVoteReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.votes.CastVote(c.Request().Context(), voting.CastVoteInput{
		LoanID:  id,
		Voter:   voter,
		Support: *req.Support,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// FundLoan may be triggered by anyone once the loan is approved and voting closed.
func (h *LoanHandler) FundLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	dto, err := h.loans.Fund(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return badRequest(c, "invalid loan_id path param")
	}
	payer := caller(c)
	if payer == "" {
		return badRequest(c, "missing or invalid Ax-Principal-Id")
	}
	dto, err := h.loans.Repay(c.Request().Context(), id, payer)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
