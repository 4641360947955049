// seed aplica las migraciones embebidas y carga sedes, productos y stock inicial de demostración.
//
// Uso:
//
//	go run ./cmd/seed                       migraciones + datos de demostración
//	go run ./cmd/seed down                  revierte todas las migraciones
//	go run ./cmd/seed token <rol> [sede]    imprime un JWT de desarrollo
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jhoicas/traslados-api/internal/application/seed"
	"github.com/jhoicas/traslados-api/internal/application/transfer"
	"github.com/jhoicas/traslados-api/internal/infrastructure/postgres"
	"github.com/jhoicas/traslados-api/pkg/config"
	"github.com/jhoicas/traslados-api/pkg/jwt"
	"github.com/jhoicas/traslados-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	cmd := "seed"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "down":
		if err := postgres.MigrateDown(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("revertir migraciones")
		}
		log.Info().Msg("migraciones revertidas")
	case "token":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Uso: seed token <admin|bodeguero|vendedor> [store_id]")
			os.Exit(2)
		}
		id := jwt.Identity{UserID: uuid.New().String(), UserName: "Usuario " + os.Args[2], Role: os.Args[2]}
		if len(os.Args) > 3 {
			id.StoreID = os.Args[3]
		}
		token, err := jwt.Generate(cfg.JWT.Secret, cfg.JWT.Issuer, id, cfg.JWT.Expiration)
		if err != nil {
			log.Fatal().Err(err).Msg("generar token")
		}
		fmt.Println(token)
	case "seed":
		if err := run(context.Background(), cfg, log); err != nil {
			log.Fatal().Err(err).Msg("carga de datos")
		}
	default:
		fmt.Fprintf(os.Stderr, "Comando desconocido: %s\n", cmd)
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	transfers := postgres.NewTransferRepository(pool)
	err = seed.Run(ctx, seed.Deps{
		Stores:   postgres.NewStoreRepository(pool),
		Products: postgres.NewProductRepository(pool),
		Stock: transfer.NewStockLedger(
			postgres.NewStockRepository(pool),
			postgres.NewStockMovementRepository(pool),
			transfers,
		),
		TxRunner: postgres.NewTxRunner(pool),
	})
	if err != nil {
		return err
	}
	log.Info().Str("sede_norte", seed.StoreNorteID).Str("sede_sur", seed.StoreSurID).Msg("datos de demostración cargados")
	return nil
}
