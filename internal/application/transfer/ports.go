package transfer

import (
	"context"
	"time"

	"github.com/jhoicas/traslados-api/internal/domain/repository"
)

// Repositories repositorios atados a una misma transacción.
type Repositories struct {
	Stock     repository.StockRepository
	Movements repository.StockMovementRepository
	Transfers repository.TransferRepository
	Sales     repository.SaleRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error se hace Rollback; nada de lo escrito dentro de fn queda persistido.
// Los conflictos de concurrencia detectados por la BD se devuelven como domain.ErrConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// IdempotencyStore registra claves de idempotencia para que los reintentos del cliente
// no creen traslados duplicados.
type IdempotencyStore interface {
	// Acquire devuelve false si la clave ya fue usada dentro del TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release libera la clave (la operación falló y puede reintentarse).
	Release(ctx context.Context, key string) error
}
