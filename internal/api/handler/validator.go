package handler

import (
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
)

// echoValidator lets Echo call c.Validate(req) with the shared rule set. Failures
// come back as *domain.ValidationError so the error handler can render them per field.
type echoValidator struct {
	v *validation.Validator
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator(v *validation.Validator) *echoValidator {
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return ev.v.Validate(i)
}
