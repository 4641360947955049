package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/traslados-api/internal/application/dto"
)

// RequireStoreAccess verifica que un usuario asignado a una sede solo consulte esa sede.
// storeOf extrae la sede pedida (parámetro de ruta o query); vacío no se restringe aquí.
// Los administradores y los usuarios sin sede en el token pasan siempre.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → no hay usuario en el contexto.
//   - 403 Forbidden    → la sede pedida no es la del usuario.
func RequireStoreAccess(storeOf func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "usuario no encontrado en el token",
			})
		}
		if !canAccessStore(c, storeOf(c)) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "no tiene acceso a la sede " + storeOf(c),
			})
		}
		return c.Next()
	}
}

// StoreParam lee la sede del parámetro de ruta indicado.
func StoreParam(name string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string { return c.Params(name) }
}

func canAccessStore(c *fiber.Ctx, storeID string) bool {
	assigned := GetStoreID(c)
	if storeID == "" || assigned == "" || GetRole(c) == RoleAdmin {
		return true
	}
	return assigned == storeID
}
