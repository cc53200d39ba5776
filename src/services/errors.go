package services

import (
	"errors"
	"eventbooking/src/repositories"
)

type ErrorKind string

const (
	KindNotFound        ErrorKind = "NotFound"
	KindAlreadyBooked   ErrorKind = "AlreadyBooked"
	KindSeatsExhausted  ErrorKind = "SeatsExhausted"
	KindBookingNotFound ErrorKind = "BookingNotFound"
	KindNotBooked       ErrorKind = "NotBooked"
	KindPersistence     ErrorKind = "PersistenceFailure"
	KindInvalid         ErrorKind = "Invalid"
	KindBusy            ErrorKind = "Busy"
)

// BookingError is returned by every service operation. Message is safe to
// show to the caller; Err keeps the underlying cause for logs.
type BookingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so that wrapped copies of a sentinel still
// compare equal to it.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrEventNotFound      = &BookingError{Kind: KindNotFound, Message: "Event not found"}
	ErrUserNotFound       = &BookingError{Kind: KindNotFound, Message: "User not found"}
	ErrAlreadyBooked      = &BookingError{Kind: KindAlreadyBooked, Message: "You have already booked this event"}
	ErrSeatsExhausted     = &BookingError{Kind: KindSeatsExhausted, Message: "No available seats"}
	ErrBookingNotFound    = &BookingError{Kind: KindBookingNotFound, Message: "Booking not found"}
	ErrNotBooked          = &BookingError{Kind: KindNotBooked, Message: "You have not booked this event"}
	ErrBookingInProgress  = &BookingError{Kind: KindBusy, Message: "Booking in progress, try again"}
	ErrEmailInUse         = &BookingError{Kind: KindInvalid, Message: "Email already in use"}
	ErrInvalidCredentials = &BookingError{Kind: KindInvalid, Message: "Invalid credentials"}
	ErrPasswordChange     = &BookingError{Kind: KindInvalid, Message: "Password update not allowed here"}
	ErrSeatFieldsLocked   = &BookingError{Kind: KindInvalid, Message: "Seat counts cannot be changed"}
	ErrPasswordTooLong    = &BookingError{Kind: KindInvalid, Message: "Password must be at most 72 bytes"}
)

func persistence(err error) error {
	return &BookingError{Kind: KindPersistence, Message: "Server error", Err: err}
}

func invalid(message string, err error) error {
	return &BookingError{Kind: KindInvalid, Message: message, Err: err}
}

// notFoundOr maps a missing record to notFound and anything else to a
// persistence failure.
func notFoundOr(err error, notFound *BookingError) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound
	}
	return persistence(err)
}

// asServiceError leaves service errors alone and wraps everything else, such
// as a failed commit, as a persistence failure.
func asServiceError(err error) error {
	var be *BookingError
	if errors.As(err, &be) {
		return be
	}
	return persistence(err)
}

func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindPersistence
}

func MessageOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Message
	}
	return "Server error"
}
