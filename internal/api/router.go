package api

import (
	"net/http"
	"time"

	"github.com/example/retail-pos/internal/api/middleware"
	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultRequestTimeout = 15 * time.Second

type RouterConfig struct {
	Handlers       *Handlers
	AuthHandlers   *AuthHandlers
	JWTService     *auth.JWTService
	Revoker        middleware.RevocationChecker
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
	ServiceName    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "retail-pos-api"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, middleware.AccessLog, chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	r.Get("/healthz", Health(cfg.HealthChecks))

	authMiddleware := middleware.AuthMiddleware(cfg.JWTService, cfg.Revoker)
	anyRole := middleware.RequireRole(auth.Roles...)
	manager := middleware.RequireRole(auth.RoleManager)
	stock := middleware.RequireRole(auth.RoleManager, auth.RoleStockClerk)
	selling := middleware.RequireRole(auth.RoleManager, auth.RoleCashier)

	// Auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandlers.Login)
		r.With(middleware.OptionalAuthMiddleware(cfg.JWTService, cfg.Revoker)).Post("/register", cfg.AuthHandlers.Register)
		r.Post("/refresh", cfg.AuthHandlers.Refresh)
		r.With(authMiddleware).Post("/logout", cfg.AuthHandlers.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware, anyRole)

		r.Get("/me", cfg.AuthHandlers.Me)
		r.Post("/me/password", cfg.AuthHandlers.ChangePassword)
		r.Get("/navigate", cfg.AuthHandlers.Navigate)

		// Categories and departments
		for path, kind := range map[string]lookup.Kind{"/categories": lookup.Category, "/departments": lookup.Department} {
			lh := h.Lookups(kind)
			r.Route(path, func(r chi.Router) {
				r.Get("/", lh.List)
				r.Get("/active", lh.Active)
				r.Get("/{id}", lh.Get)
				r.Group(func(r chi.Router) {
					r.Use(manager)
					r.Post("/", lh.Create)
					r.Put("/{id}", lh.Update)
					r.Delete("/{id}", lh.Delete)
					r.Post("/{id}/activate", lh.Activate)
				})
			})
		}

		// Suppliers
		r.Route("/suppliers", func(r chi.Router) {
			r.Use(stock)
			r.Get("/", h.ListSuppliers)
			r.Get("/active", h.ActiveSuppliers)
			r.Get("/{id}", h.GetSupplier)
			r.Post("/", h.CreateSupplier)
			r.Put("/{id}", h.UpdateSupplier)
			r.Delete("/{id}", h.DeleteSupplier)
			r.Post("/{id}/activate", h.ActivateSupplier)
		})

		// Products
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/all", h.AllProducts)
			r.Get("/barcode/{code}", h.GetProductByCode)
			r.Get("/{id}", h.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(stock)
				r.Get("/{id}/movements", h.ProductMovements)
				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
				r.Post("/{id}/activate", h.ActivateProduct)
			})
		})

		// Stock movements
		r.Route("/stock-movements", func(r chi.Router) {
			r.Use(stock)
			r.Get("/", h.ListMovements)
			r.Post("/", h.RecordMovement)
		})

		// POS
		r.Route("/pos", func(r chi.Router) {
			r.Use(selling)
			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddToCart)
			r.Put("/cart/items/{productID}", h.SetCartQuantity)
			r.Delete("/cart/items/{productID}", h.RemoveFromCart)
			r.Post("/checkout", h.Checkout)
		})

		// Sales
		r.Route("/sales", func(r chi.Router) {
			r.Use(selling)
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/revenue", h.SalesRevenue)
			r.Get("/count", h.SalesCount)
			r.Get("/{id}", h.GetSale)
			r.With(manager).Patch("/{id}/status", h.ChangeSaleStatus)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
			r.With(manager).Get("/department-consumption", h.DepartmentConsumption)
			r.With(stock).Get("/low-stock", h.LowStock)
		})

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Use(manager)
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeactivateUser)
			r.Post("/{id}/deactivate", h.DeactivateUser)
			r.Post("/{id}/activate", h.ActivateUser)
		})
	})

	return otelhttp.NewHandler(r, serviceName)
}
