// Package apperr описывает типизированные ошибки бизнес-уровня.
//
// Каждая ошибка несёт вид (Kind), по которому HTTP-слой выбирает код ответа.
// Сервисы и репозиторий создают ошибки через конструкторы пакета,
// обработчики передают их в единый транслятор без разбора структуры.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind классифицирует ошибку.
type Kind int

const (
	// KindInternal — неклассифицированная ошибка (500).
	KindInternal Kind = iota
	// KindValidation — нарушены правила полей (400).
	KindValidation
	// KindConflict — дубликат уникального поля (409).
	KindConflict
	// KindNotFound — ресурс не найден или идентификатор некорректен (404).
	KindNotFound
	// KindUnauthenticated — нет токена, токен невалиден или просрочен (401).
	KindUnauthenticated
	// KindUnauthorized — запрошен чужой ресурс (401).
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error описывает ошибку с видом, сообщением для клиента и исходной причиной.
type Error struct {
	Kind    Kind
	Message string
	// Fields — сообщения по отдельным полям, заполняется для KindValidation.
	Fields map[string]string
	// Path — имя параметра, который не удалось привести к идентификатору.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создаёт ошибку заданного вида.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap создаёт ошибку заданного вида с исходной причиной.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation собирает сообщения полей в одну ошибку.
// Порядок сообщений в тексте соответствует порядку order.
func Validation(order []string, fields map[string]string) *Error {
	msgs := make([]string, 0, len(order))
	for _, f := range order {
		if m, ok := fields[f]; ok {
			msgs = append(msgs, m)
		}
	}
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(msgs, ", "),
		Fields:  fields,
	}
}

// Conflict создаёт ошибку дубликата уникального значения.
func Conflict(msg string) *Error {
	return New(KindConflict, msg)
}

// NotFound создаёт ошибку отсутствующего ресурса.
func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

// InvalidID — идентификатор в параметре path не удалось разобрать.
func InvalidID(path string, err error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: "Resource not found. Invalid: " + path,
		Path:    path,
		Err:     err,
	}
}

// Unauthenticated создаёт ошибку запроса без действующего токена.
func Unauthenticated(msg string) *Error {
	return New(KindUnauthenticated, msg)
}

// Unauthorized создаёт ошибку доступа к чужому ресурсу.
func Unauthorized(msg string) *Error {
	return New(KindUnauthorized, msg)
}

// Internal оборачивает неожиданную ошибку.
func Internal(err error) *Error {
	return Wrap(KindInternal, "Server Error", err)
}

// KindOf возвращает вид первой *Error в цепочке или KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли ошибка к виду kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus возвращает HTTP-код для вида ошибки.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated, KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает текст, который можно отдать клиенту.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Message != "" {
		return e.Message
	}
	return "Server Error"
}
