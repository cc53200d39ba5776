package controllers

import (
	"encoding/json"
	"errors"
	"eventbooking/src/services"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// StatusOf maps a service error kind to its HTTP status.
func StatusOf(err error) int {
	switch services.KindOf(err) {
	case services.KindNotFound, services.KindBookingNotFound:
		return http.StatusNotFound
	case services.KindAlreadyBooked, services.KindSeatsExhausted, services.KindNotBooked, services.KindInvalid:
		return http.StatusBadRequest
	case services.KindBusy:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// AbortWithError renders err as {errors} for failed validation and as
// {message} for everything else.
func AbortWithError(ctx *gin.Context, status int, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonFieldName(fe)] = validationMessage(fe)
		}
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}

	var be *services.BookingError
	if errors.As(err, &be) {
		if status >= http.StatusInternalServerError {
			log.Printf("[api] %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		}
		ctx.AbortWithStatusJSON(status, gin.H{"message": be.Message})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Malformed request body"})
		return
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[api] %s %s: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		ctx.AbortWithStatusJSON(status, gin.H{"message": "Server error"})
		return
	}
	ctx.AbortWithStatusJSON(status, gin.H{"message": err.Error()})
}

// jsonFieldName drops the root struct from the namespace. The remaining
// segments already carry the registered tag names.
func jsonFieldName(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "eventdate":
		return "must be a date formatted YYYY-MM-DD"
	case "eventtime":
		return "must be a time formatted hh:mm AM/PM"
	case "phone":
		return "must be a valid phone number"
	}
	return "is invalid"
}
