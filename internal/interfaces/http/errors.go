package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/rs/zerolog"
)

var validate = newValidator()

// newValidator reporta los campos con su nombre JSON (o query) en lugar del nombre Go.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// parseBody decodifica y valida el cuerpo. Devuelve false si ya respondió con 400.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fieldName(fe)] = fieldMessage(fe)
			}
			return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: fields})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return true, nil
}

// fieldName ruta del campo con los nombres JSON, sin el tipo raíz (items[0].product_id).
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	default:
		return "inválido"
	}
}

// writeError traduce errores de dominio a HTTP. Lo inesperado se registra y responde 500 sin detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var stockErr *domain.InsufficientStockError
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente", Shortfalls: stockErr.Shortfalls,
		})
	case errors.As(err, &vErr):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
		if vErr.Field != "" {
			resp.Fields = map[string]string{vErr.Field: vErr.Reason}
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrIncompatibleUnits):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INCOMPATIBLE_UNITS", Message: err.Error()})
	case errors.Is(err, domain.ErrSameStoreTransfer):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SAME_STORE", Message: err.Error()})
	case errors.Is(err, domain.ErrCrossTenantTransfer):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "CROSS_TENANT", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrCannotDeleteUsedInventory):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVENTORY_IN_USE", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientLotQuantity),
		errors.Is(err, domain.ErrExceedsOriginalQuantity),
		errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "tenant_id requerido en el token"})
}
