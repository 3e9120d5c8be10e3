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
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/jwt"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("reversal_policy", cfg.Ledger.ReversalPolicy).
		Msg("iniciando aplicación")

	policy, err := inventory.ParseReversalPolicy(cfg.Ledger.ReversalPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración del libro de lotes")
	}

	ctx := context.Background()

	var (
		txRunner inventory.TxRunner
		reader   repository.Repositories
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.New()
		seedDemo(store, log)
		txRunner, reader = store, store.Repositories()
	default:
		if cfg.DB.AutoMigrate {
			migrator, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
			if err != nil {
				log.Fatal().Err(err).Msg("preparar migraciones")
			}
			if err := migrator.Up(); err != nil {
				log.Fatal().Err(err).Msg("aplicar migraciones")
			}
			_ = migrator.Close()
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.TxMaxRetries, log.Component("tx"))
		reader = postgres.NewRepositories(pool)
	}

	var stockCache inventory.StockCache = inventory.NopStockCache{}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisStockCache(cfg.Redis)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché de stock desactivada")
			_ = redisCache.Close()
		} else {
			defer redisCache.Close()
			stockCache = redisCache
		}
	}

	var ledgerMetrics inventory.Metrics = inventory.NopMetrics{}
	var promMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		promMetrics = metrics.New()
		ledgerMetrics = promMetrics
	}

	ids := inventory.UUIDGenerator{}
	now := inventory.Clock(time.Now)
	unitRegistry := inventory.NewUnitRegistry(reader)
	ledger := inventory.NewLedger(unitRegistry, ids, now, ledgerMetrics)
	allocator := inventory.NewAllocator(ledger, ledgerMetrics)

	invLog := log.Component("inventory")
	transferUC := inventory.NewTransferUseCase(txRunner, reader, unitRegistry, ledger, allocator, ids, now, stockCache, ledgerMetrics, invLog)
	purchaseUC := inventory.NewPurchaseUseCase(txRunner, reader, ledger, ids, now, stockCache, invLog)
	saleUC := inventory.NewSaleUseCase(txRunner, unitRegistry, ledger, allocator, policy, ids, now, stockCache, ledgerMetrics, invLog)
	stockUC := inventory.NewStockQueryUseCase(txRunner, reader, unitRegistry, allocator, stockCache, now, invLog)
	unitsUC := inventory.NewUnitsUseCase(txRunner, reader, unitRegistry, ids, now, invLog)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.AccessLog(log.Component("access")))
	if promMetrics != nil {
		app.Use(promMetrics.Middleware())
		app.Get(cfg.Metrics.Path, promMetrics.Handler())
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario por lotes API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Transfers: transferUC,
		Purchases: purchaseUC,
		Sales:     saleUC,
		Stock:     stockUC,
		Units:     unitsUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Component("http"),
	})

	if cfg.Storage.Driver == config.StorageMemory && cfg.App.Env == "development" {
		if tok, err := jwt.Generate(cfg.JWT.Secret, "demo-user", demoTenant, httpRouter.RoleAdmin, cfg.JWT.Issuer, cfg.JWT.Expiration); err == nil {
			log.Info().Str("tenant_id", demoTenant).Str("token", tok).Msg("token de demostración")
		}
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

const demoTenant = "demo"

// seedDemo tiendas, productos y unidades mínimas para probar la API sin base de datos.
func seedDemo(store *memory.Store, log *logger.Logger) {
	store.SeedStore(&entity.Store{ID: "centro", TenantID: demoTenant, Name: "Centro"})
	store.SeedStore(&entity.Store{ID: "norte", TenantID: demoTenant, Name: "Norte"})
	store.SeedProduct(&entity.Product{ID: "arroz", TenantID: demoTenant, Name: "Arroz 500g", DefaultUnitID: "und"})
	store.SeedProduct(&entity.Product{ID: "aceite", TenantID: demoTenant, Name: "Aceite 1L", DefaultUnitID: "und"})
	repos := store.Repositories()
	ctx := context.Background()
	for _, u := range []*entity.Unit{
		{ID: "und", StoreID: "centro", Name: "und", ConversionFactor: decimal.NewFromInt(1)},
		{ID: "caja", StoreID: "centro", Name: "caja", BaseUnitID: "und", ConversionFactor: decimal.NewFromInt(12)},
		{ID: "und-norte", StoreID: "norte", Name: "und", ConversionFactor: decimal.NewFromInt(1)},
	} {
		if err := repos.Units.Create(ctx, u); err != nil {
			log.Warn().Err(err).Str("unit_id", u.ID).Msg("sembrar unidad")
		}
	}
}
