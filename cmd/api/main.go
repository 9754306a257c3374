package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/saas-dashboard/internal/application/access"
	"github.com/jhoicas/saas-dashboard/internal/application/catalog"
	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/internal/application/provisioning"
	"github.com/jhoicas/saas-dashboard/internal/application/sso"
	"github.com/jhoicas/saas-dashboard/internal/application/subscription"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/erpnext"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/identity"
	inframongo "github.com/jhoicas/saas-dashboard/internal/infrastructure/mongo"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/payments"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/saas-dashboard/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/saas-dashboard/internal/interfaces/http"
	"github.com/jhoicas/saas-dashboard/pkg/config"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("sso_store", cfg.SSO.Store).
		Bool("payments_mock", cfg.Payments.UseMock).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	healthChecks := map[string]func(context.Context) error{
		"postgres": pool.Ping,
	}

	userRepo := postgres.NewUserRepository(pool)
	appRepo := postgres.NewAppRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	subRepo := postgres.NewSubscriptionRepository(pool)
	siteRepo := postgres.NewSiteRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Almacén de tokens SSO: Postgres (con barrido periódico) o Mongo (índice TTL).
	var tokenStore repository.SSOTokenRepository
	switch cfg.SSO.Store {
	case "mongo":
		db, err := inframongo.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a MongoDB")
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Client().Disconnect(dctx)
		}()
		store, err := inframongo.NewSSOTokenStore(ctx, db, cfg.SSO.Retention)
		if err != nil {
			log.Fatal().Err(err).Msg("índices de tokens sso")
		}
		tokenStore = store
		healthChecks["mongo"] = inframongo.Healthcheck(db)
	default:
		tokenStore = postgres.NewSSOTokenRepository(pool)
	}

	var paymentsProvider ports.PaymentsProvider
	if cfg.Payments.UseMock {
		paymentsProvider = payments.NewMock(log)
	} else {
		paymentsProvider = payments.NewStripe(cfg.Payments.StripeSecretKey, log)
	}

	// Identidad: OIDC en producción, token de sesión HS256 en desarrollo.
	var verifier identity.Verifier
	if cfg.OIDC.IssuerURL != "" {
		verifier, err = identity.NewOIDCVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("proveedor OIDC")
		}
	} else {
		log.Warn().Msg("OIDC_ISSUER_URL vacío: se aceptan tokens de sesión HS256")
		verifier = identity.NewSessionVerifier(cfg.JWT.Secret)
	}

	resolver := access.NewResolver(appRepo, planRepo, subRepo, log)
	manager := subscription.NewManager(userRepo, planRepo, subRepo, appRepo, paymentsProvider, txRunner, log)
	ssoSvc := sso.NewService(tokenStore, sso.Options{
		Secret:            cfg.SSO.Secret,
		Issuer:            cfg.SSO.Issuer,
		ExpirationMinutes: cfg.SSO.ExpirationMinutes,
	}, log)
	catalogUC := catalog.NewUseCase(appRepo, planRepo, log)
	provisioningUC := provisioning.NewUseCase(siteRepo, erpnext.NewClient(cfg.ERPNext, log), log)

	if cfg.SSO.Store == "postgres" {
		go sso.NewSweeper(ssoSvc, cfg.SSO.SweepInterval, cfg.SSO.Retention, log).Run(ctx)
	}

	// Rate limiter compartido entre réplicas si hay Redis; si no, memoria local.
	var limiterStorage fiber.Storage
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.Connect(ctx, cfg.Redis.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		limiterStorage = infraredis.NewStorage(rdb, "ratelimit:")
		defer limiterStorage.Close()
		healthChecks["redis"] = infraredis.Healthcheck(rdb)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.ERPNext.CreateTimeout + 30*time.Second, // la creación de sitios tarda minutos
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "SaaS Dashboard API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:         resolver,
		Subscriptions:    manager,
		Tokens:           ssoSvc,
		Apps:             appRepo,
		Catalog:          catalogUC,
		Provisioning:     provisioningUC,
		Users:            userRepo,
		Verifier:         verifier,
		UserSync:         identity.NewUserSync(userRepo),
		RateLimitMax:     cfg.RateLimit.Max,
		RateLimitWindow:  cfg.RateLimit.Window,
		RateLimitStorage: limiterStorage,
		HealthChecks:     healthChecks,
		ServiceName:      cfg.App.Name,
		Log:              log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
