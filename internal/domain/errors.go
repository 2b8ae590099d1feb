package domain

import (
	"errors"
	"fmt"
	"strconv"
)

type ErrCode string

const (
	CodeValidation        ErrCode = "validation_error"
	CodeNotFound          ErrCode = "not_found"
	CodeForbidden         ErrCode = "forbidden"
	CodeUnauthenticated   ErrCode = "unauthenticated"
	CodeCapacityExceeded  ErrCode = "capacity_exceeded"
	CodeInvalidTransition ErrCode = "invalid_transition"
	CodeInvalidState      ErrCode = "invalid_state"
	CodeConflict          ErrCode = "conflict"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error          { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error         { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrUnauthenticated(msg string) error   { return &AppError{Code: CodeUnauthenticated, Message: msg} }
func ErrInvalidState(msg string) error      { return &AppError{Code: CodeInvalidState, Message: msg} }
func ErrInvalidTransition(msg string) error { return &AppError{Code: CodeInvalidTransition, Message: msg} }
func ErrConflict(msg string) error          { return &AppError{Code: CodeConflict, Message: msg} }

// ErrEventCanceled is returned for any write against a canceled event.
func ErrEventCanceled() error { return ErrInvalidState("cannot modify canceled event") }

// ErrCapacityExceeded reports that admitting requested more guests would push the
// event over maxGuests.
func ErrCapacityExceeded(effective, max, requested int) error {
	shortfall := effective + requested - max
	if shortfall < 0 {
		shortfall = 0
	}
	return &AppError{
		Code: CodeCapacityExceeded,
		Message: fmt.Sprintf("event is at capacity (%d/%d reserved spots), cannot add %d more",
			effective, max, requested),
		Meta: map[string]string{
			"effective_guests": strconv.Itoa(effective),
			"max_guests":       strconv.Itoa(max),
			"requested":        strconv.Itoa(requested),
			"shortfall":        strconv.Itoa(shortfall),
		},
	}
}

// CodeOf returns the AppError code carried by err, or "" for foreign errors.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsCode(err error, code ErrCode) bool { return CodeOf(err) == code }
