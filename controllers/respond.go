package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"inkwell-api/services"
	"inkwell-api/utils"
)

// respondError maps a service error onto a status code. form, when not nil,
// is echoed back so the client can re-render what the user submitted.
func respondError(c *gin.Context, err error, form interface{}) {
	resp := utils.ErrorResponse{Form: form}

	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		resp.Code = http.StatusBadRequest
		resp.Error = "Validation failed"
		resp.Message = validationErr.Message
		resp.Field = validationErr.Field
	case errors.Is(err, services.ErrDuplicate):
		resp.Code = http.StatusConflict
		resp.Error = "Already exists"
	case errors.Is(err, services.ErrNotFound):
		resp.Code = http.StatusNotFound
		resp.Error = "Not found"
	case errors.Is(err, services.ErrAuth):
		resp.Code = http.StatusUnauthorized
		resp.Error = "Login required"
		resp.RedirectTo = "/login"
	case errors.Is(err, services.ErrForbidden):
		resp.Code = http.StatusForbidden
		resp.Error = "Admin access required"
		resp.RedirectTo = "/"
	case errors.Is(err, services.ErrTokenExpired):
		resp.Code = http.StatusGone
		resp.Error = "Reset link expired"
		resp.RedirectTo = "/forgot-password"
	case errors.Is(err, services.ErrTokenInvalid):
		resp.Code = http.StatusBadRequest
		resp.Error = "Reset link invalid"
		resp.RedirectTo = "/forgot-password"
	case errors.Is(err, services.ErrTransport):
		resp.Code = http.StatusBadGateway
		resp.Error = "Email delivery failed"
	default:
		resp.Code = http.StatusInternalServerError
		resp.Error = "Internal server error"
		resp.Message = "An unexpected error occurred"
		_ = c.Error(err)
	}

	var userErr *services.UserError
	if errors.As(err, &userErr) {
		if resp.Message == "" {
			resp.Message = userErr.Message
		}
		if userErr.RedirectTo != "" {
			resp.RedirectTo = userErr.RedirectTo
		}
	}

	c.JSON(resp.Code, resp)
}
