package server

import (
	"bizops-backend/internal/assets"
	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/cache"
	"bizops-backend/internal/config"
	"bizops-backend/internal/inventory"
	"bizops-backend/internal/maintenance"
	"bizops-backend/internal/models"
	"bizops-backend/internal/partners"
	"bizops-backend/internal/procurement"
	"bizops-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// Cache groups: a successful mutation drops every cached GET under the listed
// paths, including reads that embed the mutated rows (names, types, tags).
var (
	customerKeys    = []string{"/api/customers", "/api/projects"}
	projectKeys     = []string{"/api/projects"}
	consumableKeys  = []string{"/api/projects", "/api/project-consumables", "/api/inventory"}
	supplierKeys    = []string{"/api/suppliers", "/api/purchase-orders"}
	inventoryKeys   = []string{"/api/inventory", "/api/purchase-orders", "/api/projects", "/api/project-consumables"}
	assetTypeKeys   = []string{"/api/asset-types", "/api/asset-instances", "/api/maintenance"}
	assetKeys       = []string{"/api/asset-instances", "/api/asset-movements", "/api/asset-summary", "/api/maintenance"}
	maintenanceKeys = []string{"/api/maintenance", "/api/asset-summary"}
	orderKeys       = []string{"/api/purchase-orders"}
	convertKeys     = []string{"/api/purchase-orders", "/api/purchase-invoices", "/api/inventory", "/api/projects", "/api/project-consumables"}
	undoKeys        = []string{
		"/api/customers", "/api/projects", "/api/project-consumables", "/api/suppliers", "/api/inventory",
		"/api/asset-types", "/api/asset-instances", "/api/maintenance", "/api/purchase-orders",
	}
)

func registerRoutes(app *fiber.App, cfg *config.Config, store cache.Store, files *storage.Disk) {
	cached := cache.Responses(store, cfg.CacheTTL)
	invalidate := func(prefixes ...string) fiber.Handler {
		return cache.InvalidateOn(store, prefixes...)
	}

	adminOnly := auth.RequireRole(models.RoleAdmin)
	adminOrFinance := auth.RequireRole(models.RoleAdmin, models.RoleFinance)

	api := app.Group("/api")

	// Public
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))
	// uploads are referenced from <img>/<a> tags, which carry no bearer token
	api.Get("/files/:filename", maintenance.ServeFileHandler(files))

	// Protected
	p := api.Group("", auth.JWTMiddleware(cfg))

	p.Get("/auth/me", auth.MeHandler())
	p.Get("/users", adminOnly, auth.ListUsersHandler())
	p.Post("/users", adminOnly, auth.CreateUserHandler())

	// Customers & projects
	p.Get("/customers", cached, partners.ListCustomersHandler())
	p.Get("/customers/:id", cached, partners.GetCustomerHandler())
	p.Post("/customers", invalidate(customerKeys...), partners.CreateCustomerHandler())
	p.Put("/customers/:id", invalidate(customerKeys...), partners.UpdateCustomerHandler())
	p.Delete("/customers/:id", adminOnly, invalidate(customerKeys...), partners.DeleteCustomerHandler())

	p.Get("/projects", cached, partners.ListProjectsHandler())
	p.Get("/projects/:id", cached, partners.GetProjectHandler())
	p.Post("/projects", invalidate(projectKeys...), partners.CreateProjectHandler())
	p.Put("/projects/:id", invalidate(projectKeys...), partners.UpdateProjectHandler())

	p.Get("/projects/:id/consumables", cached, partners.ListConsumablesHandler())
	p.Post("/projects/:id/consumables", invalidate(consumableKeys...), partners.CreateConsumablesHandler())
	p.Put("/project-consumables/:id", invalidate(consumableKeys...), partners.UpdateConsumableHandler())
	p.Delete("/project-consumables/:id", adminOrFinance, invalidate(consumableKeys...), partners.DeleteConsumableHandler())

	// Suppliers
	p.Get("/suppliers", cached, partners.ListSuppliersHandler(false))
	p.Get("/suppliers/all", cached, partners.ListSuppliersHandler(true))
	p.Get("/suppliers/:id", cached, partners.GetSupplierHandler())
	p.Post("/suppliers", adminOrFinance, invalidate(supplierKeys...), partners.CreateSupplierHandler())
	p.Put("/suppliers/:id", adminOrFinance, invalidate(supplierKeys...), partners.UpdateSupplierHandler())

	// Inventory
	p.Get("/inventory", cached, inventory.ListItemsHandler())
	p.Get("/inventory/:id", cached, inventory.GetItemHandler())
	p.Post("/inventory", adminOrFinance, invalidate(inventoryKeys...), inventory.CreateItemHandler())
	p.Put("/inventory/:id", adminOrFinance, invalidate(inventoryKeys...), inventory.UpdateItemHandler())
	p.Delete("/inventory/:id", adminOnly, invalidate(inventoryKeys...), inventory.DeleteItemHandler())

	// Asset types
	p.Get("/asset-types", cached, assets.ListAssetTypesHandler())
	p.Get("/asset-types/:id", cached, assets.GetAssetTypeHandler())
	p.Post("/asset-types", invalidate(assetTypeKeys...), assets.CreateAssetTypeHandler())
	p.Put("/asset-types/:id", invalidate(assetTypeKeys...), assets.UpdateAssetTypeHandler())

	// Asset instances & movements
	p.Get("/asset-instances", cached, assets.ListInstancesHandler())
	p.Get("/asset-instances/by-tag/:tag", cached, assets.GetInstanceByTagHandler())
	p.Get("/asset-instances/:id", cached, assets.GetInstanceHandler())
	p.Post("/asset-instances", invalidate(assetKeys...), assets.CreateInstanceHandler())
	p.Post("/asset-instances/import", invalidate(assetKeys...), assets.ImportInstancesHandler())
	p.Put("/asset-instances/:id", invalidate(assetKeys...), assets.UpdateInstanceHandler())
	p.Post("/asset-instances/:id/assign", invalidate(assetKeys...), assets.AssignInstanceHandler())
	p.Post("/asset-instances/:id/return", invalidate(assetKeys...), assets.ReturnInstanceHandler())

	p.Get("/asset-movements/:assetInstanceId", cached, assets.ListMovementsHandler())
	p.Post("/asset-movements", invalidate(assetKeys...), assets.CreateMovementHandler())
	p.Get("/asset-summary", cached, assets.SummaryHandler())

	// Maintenance
	p.Get("/maintenance-records", cached, maintenance.ListRecordsHandler())
	p.Get("/maintenance-records/:id", cached, maintenance.GetRecordHandler())
	p.Post("/maintenance-records", invalidate(maintenanceKeys...), maintenance.CreateRecordHandler())
	p.Put("/maintenance-records/:id", invalidate(maintenanceKeys...), maintenance.UpdateRecordHandler())
	p.Get("/maintenance/upcoming", cached, maintenance.UpcomingHandler())
	p.Put("/maintenance-record/:id/archive", invalidate(maintenanceKeys...), maintenance.ArchiveHandler(true))
	p.Put("/maintenance-record/:id/unarchive", invalidate(maintenanceKeys...), maintenance.ArchiveHandler(false))

	p.Get("/maintenance-records/:id/files", cached, maintenance.ListFilesHandler())
	p.Post("/maintenance-records/:id/files", invalidate(maintenanceKeys...), maintenance.UploadFileHandler(files))
	p.Delete("/maintenance-records/:recordId/files/:fileId", invalidate(maintenanceKeys...), maintenance.DeleteFileHandler(files))

	// Purchase orders (export is registered before /:id)
	p.Get("/purchase-orders", cached, procurement.ListOrdersHandler())
	p.Get("/purchase-orders/export", procurement.ExportOrdersHandler())
	p.Get("/purchase-orders/:id", cached, procurement.GetOrderHandler())
	p.Post("/purchase-orders", adminOrFinance, invalidate(orderKeys...), procurement.CreateOrderHandler(files))
	p.Put("/purchase-orders/:id", adminOrFinance, invalidate(orderKeys...), procurement.UpdateOrderHandler(files))
	p.Post("/purchase-orders/:id/submit", invalidate(orderKeys...), procurement.SubmitOrderHandler())
	for _, route := range []func(string, ...fiber.Handler) fiber.Router{p.Patch, p.Post} {
		route("/purchase-orders/:id/approve", adminOnly, invalidate(orderKeys...), procurement.ApproveOrderHandler())
		route("/purchase-orders/:id/reject", adminOnly, invalidate(orderKeys...), procurement.RejectOrderHandler())
	}
	p.Post("/purchase-orders/:id/convert-to-invoice", adminOrFinance, invalidate(convertKeys...), procurement.ConvertOrderHandler())
	p.Delete("/purchase-orders/:id/files/:fileId", adminOrFinance, invalidate(orderKeys...), procurement.DeleteOrderFileHandler(files))

	p.Get("/purchase-invoices", cached, procurement.ListInvoicesHandler())
	p.Get("/purchase-invoices/:id", cached, procurement.GetInvoiceHandler())

	// Audit
	p.Get("/audit-logs", adminOrFinance, audit.ListAuditLogsHandler())
	p.Post("/audit-logs/:id/undo", adminOnly, invalidate(undoKeys...), audit.UndoAuditLogHandler())
}
