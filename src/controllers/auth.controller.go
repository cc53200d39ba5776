package controllers

import (
	"eventbooking/src/services"
	"eventbooking/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func AuthRegister(ctx *gin.Context, accounts *services.AccountService) (*types.AuthResponse, int, error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	res, err := accounts.Register(ctx.Request.Context(), services.Registration{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Password:  body.Password,
	})
	if err != nil {
		return nil, StatusOf(err), err
	}
	return res, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context, accounts *services.AccountService) (*types.AuthResponse, int, error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	res, err := accounts.Login(ctx.Request.Context(), body.Email, body.Password)
	if err != nil {
		return nil, StatusOf(err), err
	}
	return res, http.StatusOK, nil
}

func AuthUpdateProfile(ctx *gin.Context, accounts *services.AccountService) (*types.APIResponseUser, int, error) {
	var body types.UpdateProfileRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if body.Password != nil {
		return nil, http.StatusBadRequest, services.ErrPasswordChange
	}
	user, err := accounts.UpdateProfile(ctx.Request.Context(), ctx.GetUint("id"), services.ProfileChanges{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		return nil, StatusOf(err), err
	}
	return user, http.StatusOK, nil
}
