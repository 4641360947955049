package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/traslados-api/internal/application/dto"
	"github.com/jhoicas/traslados-api/internal/domain"
)

// newValidator valida los DTOs reportando el nombre JSON del campo.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// validateRequest aplica las reglas `validate` del DTO. Si devuelve false la respuesta 400
// ya fue escrita y el handler debe terminar sin ejecutar la operación.
func validateRequest(c *fiber.Ctx, v *validator.Validate, req any) bool {
	err := v.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		return false
	}
	fields := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		fields = append(fields, dto.FieldError{Field: field, Rule: fe.Tag()})
	}
	_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Fields:  fields,
	})
	return false
}

// badBody respuesta para cuerpos o query strings que no se pueden decodificar.
func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// writeError traduce errores de dominio a status HTTP. Los errores no reconocidos
// se registran y se devuelven como 500 sin exponer el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error interno")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string, string) {
	var ve *domain.ValidationError
	hasVE := errors.As(err, &ve)
	message := func(def string) string {
		if hasVE {
			return ve.Message
		}
		return def
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, domain.CodeInsufficientStock, message("stock insuficiente")
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, "INVALID_STATE", message("transición de estado no permitida")
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, domain.CodeDuplicateRequest, message("solicitud duplicada")
	case hasVE:
		code := ve.Code
		if code == "" {
			code = "VALIDATION"
		}
		return fiber.StatusBadRequest, code, ve.Message
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION", "datos inválidos"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT", "conflicto de concurrencia, reintente"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"
	default:
		return fiber.StatusInternalServerError, "INTERNAL", "error interno"
	}
}
