package lifecycle

import (
	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the lead enum tags (call_outcome, financing_type,
// lead_source) to v.
func RegisterValidations(v *validator.Validator) error {
	rules := map[string]govalidator.Func{
		"call_outcome": func(fl govalidator.FieldLevel) bool {
			return domain.CallOutcome(fl.Field().String()).Valid()
		},
		"financing_type": func(fl govalidator.FieldLevel) bool {
			return domain.FinancingType(fl.Field().String()).Valid()
		},
		"lead_source": func(fl govalidator.FieldLevel) bool {
			return domain.Source(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
