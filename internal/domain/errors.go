package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvalidTransition el estado destino no es alcanzable en un paso desde el actual.
	ErrInvalidTransition = errors.New("transición de estado inválida")
	// ErrDuplicateReference el movimiento ya estaba aplicado para esa referencia; no es un fallo real.
	ErrDuplicateReference = errors.New("movimiento ya aplicado para la referencia")
	// ErrSequenceUnavailable no se pudo incrementar el consecutivo; el documento no se crea.
	ErrSequenceUnavailable = errors.New("consecutivo no disponible")
	// ErrLedgerWrite fallo de almacenamiento al aplicar un movimiento; el llamador debe reintentar.
	ErrLedgerWrite = errors.New("fallo al escribir en el ledger de stock")
)
