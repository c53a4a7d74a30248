// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"finledger/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Up to 10 integer digits and 2 fractional digits, matching numeric(12,2).
var moneyRegex = regexp.MustCompile(`^-?\d{1,10}(\.\d{1,2})?$`)

// MaxUsernameLength bounds usernames in characters, not bytes.
const MaxUsernameLength = 20

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags on an arbitrary validator instance.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("calendar_date", validateCalendarDate)
	_ = v.RegisterValidation("category_type", validateCategoryType)
	_ = v.RegisterValidation("username", validateUsername)
}

func validateMoney(fl validator.FieldLevel) bool {
	return moneyRegex.MatchString(fl.Field().String())
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateCategoryType(fl validator.FieldLevel) bool {
	_, ok := models.ParseCategoryType(fl.Field().String())
	return ok
}

// validateUsername accepts 1 to MaxUsernameLength characters after trimming.
func validateUsername(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
	return n >= 1 && n <= MaxUsernameLength
}
