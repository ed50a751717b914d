package http

import "github.com/labstack/echo/v4"

type Routes struct {
	Health *Handler
	Loans  *LoanHandler
	Admin  *AdminHandler
}

// Register mounts every route on e. mutating wraps the state-changing routes
// only (idempotency in production).
func (r Routes) Register(e *echo.Echo, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", r.Health.Health)

	e.GET("/loans/:loan_id", r.Loans.GetLoan)
	e.GET("/borrowers/:principal/loans", r.Loans.ListBorrowerLoans)
	e.GET("/loans/:loan_id/votes/:principal", r.Loans.HasVoted)
	e.GET("/members", r.Admin.ListMembers)
	e.GET("/members/:principal", r.Admin.GetMember)
	e.GET("/pool", r.Admin.Pool)
	e.GET("/balances/:holder", r.Admin.Balance)

	e.POST("/loans", r.Loans.RequestLoan, mutating...)
	e.POST("/loans/:loan_id/votes", r.Loans.CastVote, mutating...)
	e.POST("/loans/:loan_id/fund", r.Loans.FundLoan, mutating...)
	e.POST("/loans/:loan_id/repay", r.Loans.RepayLoan, mutating...)

	adm := e.Group("/admin", mutating...)
	adm.POST("/members", r.Admin.AddMember)
	adm.DELETE("/members/:principal", r.Admin.RemoveMember)
	adm.PUT("/voting-period", r.Admin.SetVotingPeriod)
	adm.PUT("/required-votes", r.Admin.SetRequiredVotes)
	adm.POST("/emergency-withdraw", r.Admin.EmergencyWithdraw)
	adm.POST("/mint", r.Admin.Mint)
}
