package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sproutchef/internal/diet"
)

// RegisterValidators adds the custom binding tags used by request types.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("diet_level", func(fl validator.FieldLevel) bool {
		return diet.Level(fl.Field().String()).Valid()
	})
}
