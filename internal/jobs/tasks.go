// Package jobs trabajos en segundo plano sobre asynq (conciliación periódica del ledger).
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto de los trabajos.
	QueueDefault = "default"
	// TaskLedgerReconcile recorre todos los productos y compara caché contra historial.
	TaskLedgerReconcile = "ledger:reconcile"
)

// ReconcilePayload datos de programación del trabajo. PageSize 0 usa el valor del worker.
type ReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	PageSize     int       `json:"page_size,omitempty"`
}

// NewReconcileTask construye la tarea de conciliación.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
