package main

import (
	"eventbooking/src/utils"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var eventDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := utils.ParseEventDate(date)
	return err == nil
}

var eventTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	clock, ok := fl.Field().Interface().(string)
	return ok && utils.IsEventClock(clock)
}

var phoneValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	phone, ok := fl.Field().Interface().(string)
	return ok && utils.IsPhone(phone)
}

// fieldTagName reports fields under the name clients send: the json key,
// or the uri key for path parameters.
func fieldTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		name = fld.Tag.Get("uri")
	}
	if name == "" {
		name = fld.Name
	}
	return name
}

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(fieldTagName)
			v.RegisterValidation("eventdate", eventDateValidatorFunc)
			v.RegisterValidation("eventtime", eventTimeValidatorFunc)
			v.RegisterValidation("phone", phoneValidatorFunc)
		}
	})
}
