package util

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"
)

// SQLIdentifierPattern is the only shape of table, column and function names accepted in query specs.
var SQLIdentifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var TileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)
	validate.RegisterValidation("sqlident", sqlIdentifier)
	validate.RegisterValidation("tileid", tileID)
	validate.RegisterCustomTypeFunc(nullStringValuer, null.String{})

	return validate
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(fl.Field().String())
	candidates := strings.Split(strings.ToLower(fl.Param()), " ")
	for _, v := range candidates {
		if val == v {
			return true
		}
	}
	return false
}

func sqlIdentifier(fl validator.FieldLevel) bool {
	return SQLIdentifierPattern.MatchString(fl.Field().String())
}

func tileID(fl validator.FieldLevel) bool {
	return TileIDPattern.MatchString(fl.Field().String())
}

func nullStringValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.String); ok {
		return valuer.String
	}

	return nil
}
