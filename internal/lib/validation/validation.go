// Package validation оборачивает go-playground/validator и переводит
// нарушения правил в apperr.Error с человекочитаемыми сообщениями.
//
// Имена полей берутся из json-тегов, поэтому сообщения и ключи Fields
// совпадают с тем, что клиент отправил в теле запроса.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

// EmailPattern проверяет адрес почты при регистрации.
var EmailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Messages сопоставляет "поле.тег" тексту ошибки.
// Ключ "поле" без тега задаёт сообщение по умолчанию для поля.
type Messages map[string]string

// Validator проверяет структуры по тегам validate.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт Validator с пользовательскими тегами:
//
//	emailfmt  — адрес соответствует EmailPattern;
//	notfuture — time.Time не позже текущего момента;
//	maxbytes  — длина строки в байтах не больше параметра.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{
		validate: validator.New(),
		now:      now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.validate.RegisterValidation("emailfmt", func(fl validator.FieldLevel) bool {
		return EmailPattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(v.now())
	})

	return v
}

// RegisterStructValidation регистрирует проверку уровня структуры
// (например, сравнение двух дат).
func (v *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	v.validate.RegisterStructValidation(fn, types...)
}

// Struct проверяет s и возвращает *apperr.Error вида KindValidation
// со всеми нарушениями или nil.
func (v *Validator) Struct(s any, messages Messages) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Internal(err)
	}

	order := make([]string, 0, len(errs))
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if _, seen := fields[field]; seen {
			continue
		}
		order = append(order, field)
		fields[field] = message(fe, messages)
	}
	return apperr.Validation(order, fields)
}

func message(fe validator.FieldError, messages Messages) string {
	field := fe.Field()
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid enum value for path `%s`.", fe.Value(), field)
	case "required":
		if m, ok := messages[field]; ok {
			return m
		}
		return fmt.Sprintf("Path `%s` is required.", field)
	case "min":
		return fmt.Sprintf("Path `%s` is shorter than the minimum allowed length (%s).", field, fe.Param())
	case "max":
		return fmt.Sprintf("Path `%s` is longer than the maximum allowed length (%s).", field, fe.Param())
	}
	if m, ok := messages[field]; ok {
		return m
	}
	return fmt.Sprintf("Validator failed for path `%s` with value `%v`", field, fe.Value())
}
