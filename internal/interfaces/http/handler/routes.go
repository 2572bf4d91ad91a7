package handler

import "github.com/fabtrack/backend/internal/interfaces/http/router"

// Handlers groups the API handlers mounted by the server
type Handlers struct {
	Order      *OrderHandler
	Settlement *SettlementHandler
	Commission *CommissionHandler
	Catalog    *CatalogHandler
	System     *SystemHandler
}

// DomainGroups builds the route groups of every API area
func (hs Handlers) DomainGroups() []*router.DomainGroup {
	orders := router.NewDomainGroup("orders", "/orders")
	orders.POST("", hs.Order.Create)
	orders.GET("", hs.Order.List)
	orders.GET("/:id", hs.Order.GetByID)
	orders.POST("/:id/confirm", hs.Order.Confirm)
	orders.POST("/:id/cancel", hs.Order.Cancel)
	orders.PUT("/:id/items", hs.Order.SelectItems)
	orders.PUT("/:id/items/:itemId/price", hs.Order.EditItemPrice)
	orders.PUT("/:id/total", hs.Order.SetTotal)
	orders.GET("/:id/pricing", hs.Order.Pricing)
	orders.POST("/:id/installments", hs.Order.GenerateInstallments)
	orders.PUT("/:id/installments/:number", hs.Order.EditInstallment)
	orders.POST("/:id/installments/:number/settle", hs.Settlement.Settle)
	orders.POST("/:id/installments/:number/unsettle", hs.Settlement.Unsettle)
	orders.GET("/:id/expenses", hs.Settlement.OrderExpenses)
	orders.GET("/:id/production", hs.Order.Timeline)
	orders.POST("/:id/production/advance", hs.Order.Advance)
	orders.POST("/:id/production/regress", hs.Order.Regress)

	expenses := router.NewDomainGroup("expenses", "/expenses")
	expenses.GET("", hs.Settlement.ListExpenses)

	commissions := router.NewDomainGroup("commissions", "/commissions")
	commissions.GET("", hs.Commission.Statement)
	commissions.GET("/summary", hs.Commission.Summary)
	commissions.GET("/export", hs.Commission.Export)

	sellers := router.NewDomainGroup("sellers", "/sellers")
	sellers.POST("", hs.Commission.RegisterSeller)
	sellers.GET("", hs.Commission.ListSellers)

	catalog := router.NewDomainGroup("catalog", "/catalog")
	catalog.POST("/items", hs.Catalog.CreateItem)
	catalog.GET("/items", hs.Catalog.ListItems)
	catalog.GET("/items/:id", hs.Catalog.GetItem)
	catalog.PUT("/items/:id/price", hs.Catalog.ChangeItemPrice)
	catalog.POST("/sheets", hs.Catalog.CreateSheet)
	catalog.GET("/sheets/:id", hs.Catalog.GetSheet)

	system := router.NewDomainGroup("system", "/system")
	system.GET("/info", hs.System.GetSystemInfo)

	return []*router.DomainGroup{orders, expenses, commissions, sellers, catalog, system}
}
