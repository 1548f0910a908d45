package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"inkwell-api/metrics"
	"inkwell-api/models"
	"inkwell-api/repositories"
)

type Intent string

const (
	IntentPublish  Intent = "publish"
	IntentDraft    Intent = "draft"
	IntentSchedule Intent = "schedule"
)

const (
	scheduleDateLayout = "2006-01-02"
	scheduleTimeLayout = "15:04"
)

// PostInput is what the admin submits from the authoring form.
type PostInput struct {
	Title        string
	Category     string
	Body         string
	ImgURL       string
	Intent       Intent
	ScheduleDate string
	ScheduleTime string
}

// PostResult describes a saved post and what happened to its notification.
type PostResult struct {
	Post               *models.Post
	Notified           bool
	NotificationFailed bool
	Message            string
}

type PostService struct {
	db       *gorm.DB
	posts    *repositories.PostRepository
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func NewPostService(db *gorm.DB, posts *repositories.PostRepository, notifier Notifier, loc *time.Location, log *zap.SugaredLogger, m *metrics.Metrics) *PostService {
	if loc == nil {
		loc = time.Local
	}
	return &PostService{
		db:       db,
		posts:    posts,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		log:      log,
		metrics:  m,
	}
}

// resolveStatus maps an intent onto status and scheduled time. It never
// touches a post, so a rejected submission leaves the stored one intact.
func (ps *PostService) resolveStatus(input PostInput) (models.PostStatus, *time.Time, error) {
	switch input.Intent {
	case IntentPublish:
		return models.StatusPublished, nil, nil
	case IntentDraft:
		return models.StatusDraft, nil, nil
	case IntentSchedule:
		date := strings.TrimSpace(input.ScheduleDate)
		clock := strings.TrimSpace(input.ScheduleTime)
		if date == "" || clock == "" {
			return "", nil, newValidationError("schedule", "publish date and time are required when scheduling.")
		}
		at, err := ps.combine(date, clock)
		if err != nil {
			return "", nil, err
		}
		return models.StatusScheduled, &at, nil
	case "":
		return "", nil, newValidationError("intent", "choose whether to publish, save as draft or schedule the post.")
	default:
		return "", nil, newValidationError("intent", fmt.Sprintf("unknown action %q.", input.Intent))
	}
}

func (ps *PostService) combine(date, clock string) (time.Time, error) {
	d, err := time.ParseInLocation(scheduleDateLayout, date, ps.loc)
	if err != nil {
		return time.Time{}, newValidationError("schedule_date", "publish date must look like 2006-01-02.")
	}
	t, err := time.Parse(scheduleTimeLayout, clock)
	if err != nil {
		// Browsers send seconds for some time inputs.
		if t, err = time.Parse("15:04:05", clock); err != nil {
			return time.Time{}, newValidationError("schedule_time", "publish time must look like 15:04.")
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, ps.loc), nil
}

func validateFields(input *PostInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	input.ImgURL = strings.TrimSpace(input.ImgURL)

	switch {
	case input.Title == "":
		return newValidationError("title", "title is required.")
	case input.Category == "":
		return newValidationError("category", "category is required.")
	case strings.TrimSpace(input.Body) == "":
		return newValidationError("body", "body is required.")
	case input.ImgURL == "":
		return newValidationError("img_url", "image URL is required.")
	}
	return nil
}

func requireAdmin(actor *models.User) error {
	if actor == nil {
		return ErrAuth
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

var errDuplicateTitle = userError(ErrDuplicate, "A post with this title already exists.")

func (ps *PostService) Create(ctx context.Context, actor *models.User, input PostInput) (*PostResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateFields(&input); err != nil {
		return nil, err
	}
	status, scheduledAt, err := ps.resolveStatus(input)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:                uuid.New().String(),
		AuthorID:          actor.ID,
		Title:             input.Title,
		Date:              ps.now().In(ps.loc).Format(models.DisplayDateLayout),
		Body:              input.Body,
		ImgURL:            input.ImgURL,
		Category:          input.Category,
		Status:            status,
		ScheduledDatetime: scheduledAt,
	}

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := ps.posts.WithTx(tx)
		taken, err := repo.TitleTaken(ctx, post.Title, "")
		if err != nil {
			return err
		}
		if taken {
			return errDuplicateTitle
		}
		return repo.Create(ctx, post)
	})
	if err != nil {
		return nil, ps.persistError("create", err)
	}

	ps.log.Infow("post created", "post_id", post.ID, "status", post.Status)
	post.Author = *actor

	result := &PostResult{Post: post, Message: "Post saved successfully!"}
	if post.IsPublished() {
		ps.publish(ctx, result, "New post created and notification sent to subscribers!", "Post created, but there was an issue sending notifications.")
	}
	return result, nil
}

// Update applies an edit. The notifier runs only when the post moves into
// published from some other status.
func (ps *PostService) Update(ctx context.Context, actor *models.User, postID string, input PostInput) (*PostResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	post, err := ps.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := validateFields(&input); err != nil {
		return nil, err
	}
	status, scheduledAt, err := ps.resolveStatus(input)
	if err != nil {
		return nil, err
	}

	originalStatus := post.Status
	updated := *post
	updated.Title = input.Title
	updated.Category = input.Category
	updated.Body = input.Body
	updated.ImgURL = input.ImgURL
	updated.Status = status
	updated.ScheduledDatetime = scheduledAt

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := ps.posts.WithTx(tx)
		taken, err := repo.TitleTaken(ctx, updated.Title, updated.ID)
		if err != nil {
			return err
		}
		if taken {
			return errDuplicateTitle
		}
		return repo.Save(ctx, &updated)
	})
	if err != nil {
		return nil, ps.persistError("update", err)
	}

	ps.log.Infow("post updated", "post_id", updated.ID, "from", originalStatus, "to", updated.Status)

	result := &PostResult{Post: &updated, Message: "Post updated successfully!"}
	if originalStatus != models.StatusPublished && updated.IsPublished() {
		ps.publish(ctx, result, "New post published and notification sent to subscribers!", "Post published, but there was an issue sending notifications.")
	}
	return result, nil
}

func (ps *PostService) publish(ctx context.Context, result *PostResult, okMessage, failedMessage string) {
	ps.metrics.PostsPublished.Inc()
	result.Notified = true
	if ps.notifier.NotifyAllSubscribers(ctx, result.Post) {
		result.Message = okMessage
		return
	}
	ps.log.Warnw("post saved but notification failed", "post_id", result.Post.ID)
	result.NotificationFailed = true
	result.Message = failedMessage
}

func (ps *PostService) persistError(op string, err error) error {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateTitle
	}
	ps.log.Errorw("failed to save post", "op", op, "error", err)
	return fmt.Errorf("failed to %s post: %w", op, err)
}

func (ps *PostService) findPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := ps.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userError(ErrNotFound, "Post not found.")
		}
		return nil, err
	}
	return post, nil
}

func (ps *PostService) Delete(ctx context.Context, actor *models.User, postID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ps.posts.WithTx(tx).Delete(ctx, postID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return userError(ErrNotFound, "Post not found.")
	}
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	ps.log.Infow("post deleted", "post_id", postID)
	return nil
}

// Get returns a post visible to viewer. Unpublished posts are only visible to
// the admin. A non-empty categorySlug must match the post's category.
func (ps *PostService) Get(ctx context.Context, viewer *models.User, postID, categorySlug string) (*models.Post, error) {
	post, err := ps.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if categorySlug != "" && models.CategorySlug(post.Category) != strings.ToLower(categorySlug) {
		return nil, userError(ErrNotFound, fmt.Sprintf("Post with ID %s not found in category %s.", postID, models.CategoryFromSlug(categorySlug)))
	}
	if !post.IsPublished() && !viewer.IsAdmin() {
		return nil, userError(ErrNotFound, "Post not found.")
	}
	return post, nil
}

// View is Get plus a view count increment.
func (ps *PostService) View(ctx context.Context, viewer *models.User, postID, categorySlug string) (*models.Post, error) {
	post, err := ps.Get(ctx, viewer, postID, categorySlug)
	if err != nil {
		return nil, err
	}
	if err := ps.posts.IncrementViews(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	post.Views++
	return post, nil
}

// Like adds one like and returns the new total. categorySlug is checked the
// same way Get checks it.
func (ps *PostService) Like(ctx context.Context, viewer *models.User, postID, categorySlug string) (int, error) {
	if viewer == nil {
		return 0, userError(ErrAuth, "Log in to like posts.")
	}
	post, err := ps.Get(ctx, viewer, postID, categorySlug)
	if err != nil {
		return 0, err
	}
	if err := ps.posts.IncrementLikes(ctx, post.ID); err != nil {
		return 0, fmt.Errorf("failed to like post: %w", err)
	}
	ps.metrics.PostLikes.Inc()
	return ps.posts.Likes(ctx, post.ID)
}

// ListPublished returns published posts, newest first, with the total count.
func (ps *PostService) ListPublished(ctx context.Context, categorySlug string, page repositories.Page) ([]models.Post, int64, error) {
	return ps.posts.ListPublished(ctx, strings.TrimSpace(categorySlug), page)
}

func (ps *PostService) Search(ctx context.Context, query string, page repositories.Page) ([]models.Post, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Post{}, 0, nil
	}
	return ps.posts.Search(ctx, query, page)
}

func (ps *PostService) Categories(ctx context.Context) ([]string, error) {
	return ps.posts.Categories(ctx)
}

func (ps *PostService) Related(ctx context.Context, post *models.Post) ([]models.Post, error) {
	return ps.posts.Related(ctx, post)
}

func (ps *PostService) Drafts(ctx context.Context, actor *models.User) ([]models.Post, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return ps.posts.ListByStatus(ctx, models.StatusDraft)
}

func (ps *PostService) Scheduled(ctx context.Context, actor *models.User) ([]models.Post, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return ps.posts.ListByStatus(ctx, models.StatusScheduled)
}

// OverdueScheduled lists scheduled posts whose time has come. Nothing
// publishes them automatically; they wait for the admin.
func (ps *PostService) OverdueScheduled(ctx context.Context, now time.Time) ([]models.Post, error) {
	return ps.posts.DueScheduled(ctx, now)
}
