// File: /controllers/post_controller.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"inkwell-api/middleware"
	"inkwell-api/models"
	"inkwell-api/repositories"
	"inkwell-api/services"
	"inkwell-api/utils"
)

type PostController struct {
	postService    *services.PostService
	commentService *services.CommentService
	publicURL      string
	secureCookie   bool
}

func NewPostController(postService *services.PostService, commentService *services.CommentService, publicURL string, secureCookie bool) *PostController {
	return &PostController{
		postService:    postService,
		commentService: commentService,
		publicURL:      publicURL,
		secureCookie:   secureCookie,
	}
}

// CreatePostRequest is the authoring form. Intent is one of publish, draft or
// schedule; the schedule fields only matter for schedule.
type CreatePostRequest struct {
	Title        string `json:"title" form:"title"`
	Category     string `json:"category" form:"category"`
	Body         string `json:"body" form:"body"`
	ImgURL       string `json:"img_url" form:"img_url"`
	Intent       string `json:"intent" form:"intent"`
	ScheduleDate string `json:"publish_date" form:"publish_date"`
	ScheduleTime string `json:"publish_time" form:"publish_time"`
}

func (r CreatePostRequest) toInput() services.PostInput {
	return services.PostInput{
		Title:        r.Title,
		Category:     r.Category,
		Body:         r.Body,
		ImgURL:       r.ImgURL,
		Intent:       services.Intent(r.Intent),
		ScheduleDate: r.ScheduleDate,
		ScheduleTime: r.ScheduleTime,
	}
}

type PostSaveResponse struct {
	Message            string       `json:"message"`
	Post               *models.Post `json:"post"`
	NotificationFailed bool         `json:"notification_failed"`
	URL                string       `json:"url"`
}

type PostPageResponse struct {
	Post       *models.Post          `json:"post"`
	Comments   []*models.CommentNode `json:"comments"`
	Related    []models.Post         `json:"related"`
	Categories []string              `json:"categories"`
	URL        string                `json:"url"`
}

type ScheduledPost struct {
	models.Post
	Overdue bool `json:"overdue"`
}

func (pc *PostController) GetPosts(c *gin.Context) {
	page, limit := middleware.Pagination(c)

	posts, total, err := pc.postService.ListPublished(c.Request.Context(), c.Query("category"), pageOf(page, limit))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	utils.SendPaginated(c, posts, page, limit, total)
}

func (pc *PostController) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentUser(c)

	post, err := pc.postService.View(ctx, viewer, c.Param("id"), c.Query("category"))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	comments, err := pc.commentService.Thread(ctx, viewer, post.ID)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	related, err := pc.postService.Related(ctx, post)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	categories, err := pc.postService.Categories(ctx)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	page := "/" + models.CategorySlug(post.Category) + "/post/" + post.ID
	if viewer == nil {
		c.SetCookie(NextCookie, page, int(time.Hour.Seconds()), "/", "", pc.secureCookie, true)
	}

	c.JSON(http.StatusOK, PostPageResponse{
		Post:       post,
		Comments:   comments,
		Related:    related,
		Categories: categories,
		URL:        services.PostURL(pc.publicURL, post),
	})
}

func (pc *PostController) LikePost(c *gin.Context) {
	likes, err := pc.postService.Like(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), c.Query("category"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (pc *PostController) Search(c *gin.Context) {
	page, limit := middleware.Pagination(c)

	results, total, err := pc.postService.Search(c.Request.Context(), c.Query("q"), pageOf(page, limit))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	utils.SendPaginated(c, results, page, limit, total)
}

func pageOf(page, limit int) repositories.Page {
	return repositories.Page{Offset: (page - 1) * limit, Limit: limit}
}

func (pc *PostController) GetCategories(c *gin.Context) {
	categories, err := pc.postService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (pc *PostController) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	result, err := pc.postService.Create(c.Request.Context(), middleware.CurrentUser(c), req.toInput())
	if err != nil {
		respondError(c, err, req)
		return
	}

	c.JSON(http.StatusCreated, pc.saveResponse(result))
}

func (pc *PostController) UpdatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	result, err := pc.postService.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.toInput())
	if err != nil {
		// The edit form is re-rendered from what was submitted.
		respondError(c, err, req)
		return
	}

	c.JSON(http.StatusOK, pc.saveResponse(result))
}

func (pc *PostController) saveResponse(result *services.PostResult) PostSaveResponse {
	return PostSaveResponse{
		Message:            result.Message,
		Post:               result.Post,
		NotificationFailed: result.NotificationFailed,
		URL:                services.PostURL(pc.publicURL, result.Post),
	}
}

func (pc *PostController) DeletePost(c *gin.Context) {
	if err := pc.postService.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully", "redirect_to": "/"})
}

func (pc *PostController) GetDrafts(c *gin.Context) {
	drafts, err := pc.postService.Drafts(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

func (pc *PostController) GetScheduled(c *gin.Context) {
	posts, err := pc.postService.Scheduled(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}

	now := time.Now()
	scheduled := make([]ScheduledPost, 0, len(posts))
	for _, post := range posts {
		overdue := post.ScheduledDatetime != nil && !post.ScheduledDatetime.After(now)
		scheduled = append(scheduled, ScheduledPost{Post: post, Overdue: overdue})
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": scheduled})
}
