package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("solicitud duplicada")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual, reintente")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
)

// Códigos de validación expuestos al cliente.
const (
	CodeNoItems            = "NO_ITEMS"
	CodeSameStore          = "SAME_STORE"
	CodeInactiveStore      = "INACTIVE_STORE"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidSubLocation = "INVALID_SUBLOCATION"
	CodeInvalidPrice       = "INVALID_PRICE"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodePaymentMismatch    = "PAYMENT_MISMATCH"
	CodeOverReceipt        = "OVER_RECEIPT"
	CodeEmptyReceipt       = "EMPTY_RECEIPT"
	CodeUnknownItem        = "UNKNOWN_ITEM"
	CodeDuplicateItem      = "DUPLICATE_ITEM"
	CodeTerminalTransfer   = "TERMINAL_TRANSFER"
	CodeReasonRequired     = "REASON_REQUIRED"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeDuplicateRequest   = "DUPLICATE_REQUEST"
)

// ValidationError es un error del llamador con un mensaje específico para mostrar
// (p. ej. "stock insuficiente, disponible: 15"). Envuelve un error centinela para errors.Is.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError construye un ValidationError. Si err es nil se usa ErrInvalidInput.
func NewValidationError(err error, code, format string, args ...any) *ValidationError {
	if err == nil {
		err = ErrInvalidInput
	}
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation indica si err es un error del llamador (nunca se reintenta ni se corrige en silencio).
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrInvalidTransition)
}

// NotFound envuelve ErrNotFound con el tipo y el identificador del recurso.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
