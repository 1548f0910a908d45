// File: /controllers/auth_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/services"
	"inkwell-api/utils"
)

// NextCookie remembers the page to return to after logging in.
const NextCookie = "next"

type AuthController struct {
	authService  *services.AuthService
	secureCookie bool
}

func NewAuthController(authService *services.AuthService, secureCookie bool) *AuthController {
	return &AuthController{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"new_password" form:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"`
}

// AuthResponse carries the caller's own email, which User leaves out.
type AuthResponse struct {
	Token      string       `json:"token"`
	User       *models.User `json:"user"`
	Email      string       `json:"email"`
	RedirectTo string       `json:"redirect_to"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	user, err := ac.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	token, err := ac.startSession(c, user)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token:      token,
		User:       user,
		Email:      user.Email,
		RedirectTo: "/",
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	user, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	token, err := ac.startSession(c, user)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	// Send the user back to the page they tried to use before logging in, once.
	redirectTo := "/"
	if next, err := c.Cookie(NextCookie); err == nil && utils.IsSafeRedirect(next) {
		redirectTo = next
	}
	c.SetCookie(NextCookie, "", -1, "/", "", ac.secureCookie, true)

	c.JSON(http.StatusOK, AuthResponse{
		Token:      token,
		User:       user,
		Email:      user.Email,
		RedirectTo: redirectTo,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ac.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out", "redirect_to": "/"})
}

func (ac *AuthController) startSession(c *gin.Context, user *models.User) (string, error) {
	token, err := ac.authService.IssueSession(user)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(services.SessionTokenTTL.Seconds()), "/", "", ac.secureCookie, true)
	return token, nil
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	if err := ac.authService.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "A password reset link has been sent to your email.",
		"redirect_to": "/login",
	})
}

// CheckResetToken lets the reset form find out whether its link still works.
func (ac *AuthController) CheckResetToken(c *gin.Context) {
	email, _, err := ac.authService.VerifyReset(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "email": email})
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	err := ac.authService.ConsumeReset(c.Request.Context(), c.Param("token"), req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Password reset successful. Please log in.",
		"redirect_to": "/login",
	})
}
