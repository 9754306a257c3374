package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/identity"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver      accessResolver
	Subscriptions subscriptionManager
	Tokens        tokenService
	Apps          appFinder
	Catalog       interface {
		catalogAdmin
		apiKeyVerifier
	}
	Provisioning siteProvisioning
	Users        userReader
	Verifier     identity.Verifier
	UserSync     userEnsurer

	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitStorage fiber.Storage // nil = memoria local

	// HealthChecks ping por dependencia (postgres, mongo, redis).
	HealthChecks map[string]func(context.Context) error
	ServiceName  string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", healthHandler(deps.ServiceName, deps.HealthChecks))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Precios (público)
	subscriptionHandler := NewSubscriptionHandler(deps.Subscriptions)
	api.Get("/plans", subscriptionHandler.Plans)

	// SSO: validate y token-info los llama la app destino con su API key.
	ssoHandler := NewSSOHandler(deps.Tokens, deps.Apps)
	limit := RateLimiter(deps.RateLimitMax, deps.RateLimitWindow, deps.RateLimitStorage)
	appAuth := AppKeyMiddleware(deps.Catalog)
	api.Post("/sso/validate", limit, appAuth, ssoHandler.Validate)
	api.Get("/sso/token-info", appAuth, ssoHandler.TokenInfo)

	// Rutas protegidas (requieren Bearer Token del proveedor de identidad)
	protected := api.Group("/", AuthMiddleware(deps.Verifier, deps.UserSync, deps.Log))

	protected.Get("/me", NewMeHandler(deps.Users).Get)

	appsHandler := NewAppsHandler(deps.Resolver)
	protected.Get("/apps/catalog", appsHandler.Catalog)
	protected.Get("/apps/:slug/access", appsHandler.Access)

	protected.Post("/sso/generate", limit, RequireAppAccess(SlugFromBody, deps.Resolver), ssoHandler.Generate)

	subs := protected.Group("/subscriptions")
	subs.Get("/status", subscriptionHandler.Status)
	subs.Post("/subscribe", subscriptionHandler.Subscribe)
	subs.Post("/change-plan", subscriptionHandler.ChangePlan)
	subs.Post("/cancel", subscriptionHandler.Cancel)

	erp := protected.Group("/erpnext")
	erpHandler := NewERPNextHandler(deps.Provisioning)
	erp.Post("/create-site", erpHandler.CreateSite)
	erp.Get("/create-site", erpHandler.GetSite)
	erp.Delete("/site", erpHandler.DeleteSite)

	// Administración del catálogo (solo admin)
	admin := protected.Group("/admin", RequireRole(entity.RoleAdmin))
	adminHandler := NewAdminHandler(deps.Catalog)
	admin.Get("/apps", adminHandler.ListApps)
	admin.Post("/apps", adminHandler.CreateApp)
	admin.Put("/apps/:slug", adminHandler.UpdateApp)
	admin.Delete("/apps/:slug", adminHandler.DeleteApp)
	admin.Post("/apps/:slug/api-key", adminHandler.RotateAPIKey)
	admin.Put("/plans/:planId/apps/:appId", adminHandler.SetPlanApp)
}

func healthHandler(service string, checks map[string]func(context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := fiber.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = fiber.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		state := "ok"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{"status": state, "service": service, "checks": deps})
	}
}
