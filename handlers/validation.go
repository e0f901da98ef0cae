package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/feather-classroom/feather/feather/types"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	templateTag = "template"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(templateTag, func(fl validator.FieldLevel) bool {
		return types.Templates[fl.Field().String()]
	})
	_ = Validate.RegisterTranslation(templateTag, Translator, func(ut.Translator) error { return nil }, func(_ ut.Translator, fe validator.FieldError) string {
		return fe.Field() + " is not a known template"
	})
}

type validationError struct {
	fields map[string]string
}

func (v *validationError) Error() string {
	return "invalid request"
}

// maxBodyBytes bounds json request bodies. Images go through FileUpload.
const maxBodyBytes = 4 << 20

// decode reads the json body into v and validates it. An empty body leaves v
// untouched.
func decode(rw http.ResponseWriter, req *http.Request, v interface{}) error {
	body := http.MaxBytesReader(rw, req.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && err != io.EOF {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &validationError{fields: map[string]string{"body": err.Error()}}
	}
	if err := Validate.Struct(v); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		fields := map[string]string{}
		for _, fe := range errs {
			fields[fe.Field()] = fe.Translate(Translator)
		}
		return &validationError{fields: fields}
	}
	return nil
}
