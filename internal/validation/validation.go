// Package validation checks input structs and values with go-playground
// validator and renders failures as common.ValidationError.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator reports failures as English sentences naming the JSON field.
// It is safe for concurrent use.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	return &Validator{v: v, trans: trans}
}

func (val *Validator) translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return common.Validationf("Invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(val.trans))
	}
	return common.Validationf("%s", strings.Join(msgs, "; "))
}

// Struct checks s against its `validate` tags.
func (val *Validator) Struct(s any) error {
	if err := val.v.Struct(s); err != nil {
		return val.translate(err)
	}
	return nil
}

// Var checks a single value, reporting failures with message.
func (val *Validator) Var(value any, tag, message string) error {
	if err := val.v.Var(value, tag); err != nil {
		return common.Validationf("%s", message)
	}
	return nil
}
