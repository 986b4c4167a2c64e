package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

var weekdays = map[string]bool{
	models.Monday:    true,
	models.Tuesday:   true,
	models.Wednesday: true,
	models.Thursday:  true,
	models.Friday:    true,
	models.Saturday:  true,
}

// NewValidator returns a validator with the portal's custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerRules(v)
	return v
}

func registerRules(v *validator.Validate) {
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return weekdays[fl.Field().String()]
	})
	_ = v.RegisterValidation("attendance_period", func(fl validator.FieldLevel) bool {
		p := fl.Field().Int()
		return p >= 1 && p <= models.PeriodsPerDay
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	return v
}

const dateLayout = "2006-01-02"

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}
