package handlers

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
)

// RegisterValidators adds the "yearmonth" and "category" binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("yearmonth", validateYearMonth); err != nil {
		return err
	}
	return v.RegisterValidation("category", validateCategory)
}

func validateYearMonth(fl validator.FieldLevel) bool {
	_, err := domain.ParseYearMonth(fl.Field().String())
	return err == nil
}

func validateCategory(fl validator.FieldLevel) bool {
	return domain.Category(fl.Field().String()).IsValid()
}
