package common

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GenericEchoValidator plugs go-playground/validator into echo's Context.Validate.
type GenericEchoValidator struct {
	Validator *validator.Validate
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %s", describe(err)))
	}
	return nil
}

// describe lists failing fields as "Field (tag=param)".
func describe(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s (%s=%s)", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}
