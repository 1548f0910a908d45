package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"inkwell-api/middleware"
	"inkwell-api/services"
	"inkwell-api/utils"
)

type CommentController struct {
	commentService *services.CommentService
}

func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{
		commentService: commentService,
	}
}

type CreateCommentRequest struct {
	Comment  string  `json:"comment" form:"comment" binding:"required"`
	ParentID *string `json:"parent_id" form:"parent_id"`
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	comment, err := cc.commentService.AddComment(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Comment, req.ParentID)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) GetComments(c *gin.Context) {
	thread, err := cc.commentService.Thread(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": thread})
}
