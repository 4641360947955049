package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/traslados-api/internal/application/seed"
	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/domain/repository"
	"github.com/jhoicas/traslados-api/internal/infrastructure/memory"
	"github.com/jhoicas/traslados-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/traslados-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/traslados-api/internal/interfaces/http"
	"github.com/jhoicas/traslados-api/pkg/config"
	"github.com/jhoicas/traslados-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage repositorios de lectura y runner transaccional del driver elegido.
type storage struct {
	txRunner  transfer.TxRunner
	stores    repository.StoreRepository
	products  repository.ProductRepository
	stock     repository.StockRepository
	movements repository.StockMovementRepository
	transfers repository.TransferRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if cfg.JWT.Secret == "" {
		panic("JWT_SECRET es obligatorio")
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st := openStorage(ctx, cfg, log)
	defer st.close()

	ledger := transfer.NewStockLedger(st.stock, st.movements, st.transfers)

	opts := []transfer.Option{transfer.WithLogger(log.Component("transfers"))}
	if cfg.Redis.Addr != "" {
		idem, err := infraredis.NewIdempotencyStore(ctx, infraredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer idem.Close()
		opts = append(opts, transfer.WithIdempotency(idem))
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: claves de idempotencia en memoria del proceso")
		opts = append(opts, transfer.WithIdempotency(memory.NewIdempotencyStore()))
	}

	transferUC := transfer.NewTransferUseCase(
		st.txRunner, st.transfers, st.products, st.stores, ledger,
		transfer.NewSalesLedger(cfg.Transfer.PaymentTolerance),
		transfer.Config{
			DefaultPageSize: cfg.Transfer.DefaultPageSize,
			MaxPageSize:     cfg.Transfer.MaxPageSize,
			IdempotencyTTL:  cfg.Transfer.IdempotencyTTL,
		},
		opts...,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	origins := strings.Split(cfg.HTTP.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + httpRouter.HeaderIdempotencyKey,
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Traslados API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TransferUC:  transferUC,
		StockLedger: ledger,
		Log:         log.Component("http"),
		JWTSecret:   cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage conecta PostgreSQL (con migraciones opcionales) o arma el almacenamiento
// en memoria con datos de demostración.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.App.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		st := storage{
			txRunner:  memory.NewTxRunner(store),
			stores:    memory.NewStoreRepository(store),
			products:  memory.NewProductRepository(store),
			stock:     memory.NewStockRepository(store),
			movements: memory.NewStockMovementRepository(store),
			transfers: memory.NewTransferRepository(store),
			close:     func() {},
		}
		err := seed.Run(ctx, seed.Deps{
			Stores:   st.stores,
			Products: st.products,
			Stock:    transfer.NewStockLedger(st.stock, st.movements, st.transfers),
			TxRunner: st.txRunner,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("carga de datos de demostración")
		}
		log.Info().Msg("almacenamiento en memoria con datos de demostración")
		return st
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		txRunner:  postgres.NewTxRunner(pool),
		stores:    postgres.NewStoreRepository(pool),
		products:  postgres.NewProductRepository(pool),
		stock:     postgres.NewStockRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		transfers: postgres.NewTransferRepository(pool),
		close:     pool.Close,
	}
}
