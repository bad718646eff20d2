// Package subscription содержит правила жизненного цикла подписки:
// значения по умолчанию, проверку полей и преобразование перед записью.
//
// Engine не знает о хранилище. Сервис вызывает BeforeSave перед каждой
// записью, поэтому повторное сохранение старой подписки может перевести
// её в статус expired.
package subscription

import (
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/renewal"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// fieldOrder задаёт порядок сообщений в тексте ошибки валидации.
var fieldOrder = []string{
	"name", "price", "currency", "frequency", "category",
	"paymentMethod", "status", "startDate", "renewalDate", "user",
}

var messages = validation.Messages{
	"name":                "Subscription name is required",
	"name.min":            "Subscription name must be at least 3 characters long",
	"name.max":            "Subscription name must be at most 50 characters long",
	"price":               "Price is required",
	"price.min":           "Price must be a positive number",
	"paymentMethod":       "Payment method is required",
	"startDate":           "Start date is required",
	"startDate.notfuture": "Start date cannot be in the future",
	"renewalDate":         "Renewal date must be after the start date",
	"user":                "User ID is required",
}

// Engine применяет правила подписки. Источник времени внедряется,
// чтобы проверки "не в будущем" и "уже истекла" были детерминированы в тестах.
type Engine struct {
	validate *validation.Validator
	now      func() time.Time
}

// NewEngine создаёт Engine. now == nil означает time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	v := validation.New(now)
	v.RegisterStructValidation(renewalAfterStart, models.Subscription{})
	return &Engine{validate: v, now: now}
}

// Now возвращает текущее время по часам Engine.
func (e *Engine) Now() time.Time {
	return e.now()
}

// New собирает подписку из входных данных для владельца ownerID
// и прогоняет её через BeforeSave. Поле владельца берётся только из ownerID.
func (e *Engine) New(ownerID string, in models.SubscriptionInput) (*models.Subscription, error) {
	sub := &models.Subscription{
		Name:          in.Name,
		Currency:      in.Currency,
		Frequency:     in.Frequency,
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
		Status:        in.Status,
		RenewalDate:   in.RenewalDate.Ptr(),
		UserID:        ownerID,
	}
	if in.Price != nil {
		sub.Price = *in.Price
	}
	if in.StartDate != nil {
		sub.StartDate = in.StartDate.Time
	}

	err := e.BeforeSave(sub)
	if in.Price == nil {
		return nil, withField(err, "price", messages["price"])
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// BeforeSave выполняется перед каждой записью: значения по умолчанию,
// проверка полей, затем вычисление даты продления и статуса.
func (e *Engine) BeforeSave(sub *models.Subscription) error {
	now := e.now()
	ApplyDefaults(sub, now)
	if err := e.Validate(sub); err != nil {
		return err
	}
	PrepareForSave(sub, now)
	return nil
}

// Validate проверяет все поля и возвращает одну ошибку KindValidation со всеми нарушениями.
func (e *Engine) Validate(sub *models.Subscription) error {
	err := e.validate.Struct(sub, messages)
	if err == nil {
		return nil
	}
	return reorder(err)
}

// ApplyDefaults подставляет значения по умолчанию и обрезает пробелы.
func ApplyDefaults(sub *models.Subscription, now time.Time) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.PaymentMethod = strings.TrimSpace(sub.PaymentMethod)
	if sub.Currency == "" {
		sub.Currency = models.DefaultCurrency
	}
	if sub.Frequency == "" {
		sub.Frequency = models.DefaultFrequency
	}
	if sub.Status == "" {
		sub.Status = models.StatusActive
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = now
	}
}

// PrepareForSave вычисляет дату продления, если она не задана,
// и переводит подписку в expired, если эта дата уже прошла.
// Статус, переданный клиентом, при этом не учитывается.
func PrepareForSave(sub *models.Subscription, now time.Time) {
	if sub.RenewalDate == nil {
		if next, ok := renewal.Next(sub.StartDate, sub.Frequency); ok {
			sub.RenewalDate = &next
		}
	}
	if sub.RenewalDate != nil && renewal.Lapsed(*sub.RenewalDate, now) {
		sub.Status = models.StatusExpired
	}
}

func renewalAfterStart(sl validator.StructLevel) {
	sub, ok := sl.Current().Interface().(models.Subscription)
	if !ok || sub.RenewalDate == nil || sub.StartDate.IsZero() {
		return
	}
	if !sub.RenewalDate.After(sub.StartDate) {
		sl.ReportError(sub.RenewalDate, "renewalDate", "RenewalDate", "afterstart", "")
	}
}

func reorder(err error) error {
	appErr, ok := err.(*apperr.Error)
	if !ok || appErr.Kind != apperr.KindValidation {
		return err
	}
	return apperr.Validation(fieldOrder, appErr.Fields)
}

func withField(err error, field, msg string) error {
	fields := map[string]string{}
	if appErr, ok := err.(*apperr.Error); ok && appErr.Kind == apperr.KindValidation {
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	} else if err != nil {
		return err
	}
	fields[field] = msg
	return apperr.Validation(fieldOrder, fields)
}
