package inventory

import (
	"context"

	"github.com/jhoicas/vendstock-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Records    repository.InventoryRecordRepository
	Movements  repository.StockMovementRepository
	Dispatches repository.DispatchRepository
	Returns    repository.ReturnRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// ChangeNotifier recibe aviso después de cada mutación confirmada (ej. invalidar caché de reportes).
type ChangeNotifier interface {
	InventoryChanged(ctx context.Context, companyID string)
}

// MutationRecorder registra el resultado de cada operación del motor (métricas).
type MutationRecorder interface {
	ObserveMutation(op string, err error)
}
