package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator reports JSON field names in validation errors and registers
// the location_id tag on gin's validator
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerValidators(v)
}

func registerValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("location_id", func(fl validator.FieldLevel) bool {
		_, err := shared.ParseLocationID(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register location_id validator: %w", err)
	}
	return nil
}

// ValidationDetails turns binding errors into per-field details
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

// LocationQuery rejects a malformed location_id query parameter before the
// handler runs. An absent parameter is allowed.
func LocationQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("location_id")
		if raw == "" {
			c.Next()
			return
		}
		if _, err := shared.ParseLocationID(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				shared.ErrInvalidLocationID.Code, shared.ErrInvalidLocationID.Message, GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "location_id":
		return "Must have the form location_<branchId>"
	case "dive":
		return "Invalid list entry"
	default:
		return "Invalid value"
	}
}
