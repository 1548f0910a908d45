package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"inkwell-api/services"
	"inkwell-api/utils"
)

type ContactController struct {
	contactService *services.ContactService
}

func NewContactController(contactService *services.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

type ContactRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Message         string `json:"message" form:"message"`
	Honeypot        string `json:"honeypot" form:"honeypot"`
	CaptchaResponse string `json:"h-captcha-response" form:"h-captcha-response"`
}

func (cc *ContactController) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	err := cc.contactService.Submit(c.Request.Context(), services.ContactInput{
		Name:            req.Name,
		Email:           req.Email,
		Message:         req.Message,
		Honeypot:        req.Honeypot,
		CaptchaResponse: req.CaptchaResponse,
		RemoteIP:        c.ClientIP(),
	})
	if errors.Is(err, services.ErrSpam) {
		c.JSON(http.StatusOK, gin.H{"message": "Spam detected, ignoring form submission."})
		return
	}
	if err != nil {
		respondError(c, err, req)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully!"})
}
