package http

import (
	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health   *Handler
	Contract *ContractHandler
	Settings *SettingsHandler
	Sim      *SimHandler
	World    *WorldHandler
	// Idempotency guards borrower commands; nil disables it.
	Idempotency echo.MiddlewareFunc
	Metrics     echo.HandlerFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", r.Metrics)
	}

	var guard []echo.MiddlewareFunc
	if r.Idempotency != nil {
		guard = append(guard, r.Idempotency)
	}
	b := e.Group("/borrowers/:borrower_id")
	b.GET("/contract", r.Contract.GetContract)
	b.GET("/contract/snapshot", r.Contract.ExportSnapshot)
	b.PUT("/contract/snapshot", r.Contract.ImportSnapshot, guard...)
	b.GET("/notices", r.Contract.ListNotices)
	b.POST("/loan", r.Contract.RequestLoan, guard...)
	b.POST("/payments/interest", r.Contract.PayInterest, guard...)
	b.POST("/payments/full", r.Contract.PayFull, guard...)
	b.POST("/tribute", r.Contract.SendTribute, guard...)

	e.GET("/settings/terms", r.Settings.GetTerms)
	e.PUT("/settings/terms", r.Settings.UpdateTerms)
	e.DELETE("/settings/terms", r.Settings.ResetTerms)

	e.GET("/sim/clock", r.Sim.Clock)
	e.POST("/sim/advance", r.Sim.Advance)

	w := e.Group("/world")
	w.PUT("/outpost", r.World.SetOutpost)
	w.PUT("/borrowers/:borrower_id/home", r.World.SetHome)
	w.PUT("/borrowers/:borrower_id/party", r.World.SetParty)
	w.POST("/borrowers/:borrower_id/deposit", r.World.Deposit)
	w.GET("/borrowers/:borrower_id/purses", r.World.Purses)
	w.DELETE("/locations/:location_id", r.World.RemoveLocation)
	w.GET("/locations/:location_id/hostiles", r.World.Hostiles)
	w.POST("/locations/:location_id/hostiles/defeat", r.World.DefeatHostiles)
}
