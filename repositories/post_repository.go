package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"inkwell-api/models"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Save writes the authoring and lifecycle fields of an existing post.
// Counters are left alone so concurrent likes and views are not overwritten.
func (r *PostRepository) Save(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("title", "category", "body", "img_url", "status", "scheduled_datetime", "updated_at").
		Updates(map[string]interface{}{
			"title":              post.Title,
			"category":           post.Category,
			"body":               post.Body,
			"img_url":            post.ImgURL,
			"status":             post.Status,
			"scheduled_datetime": post.ScheduledDatetime,
			"updated_at":         time.Now(),
		}).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// TitleTaken reports whether another post already uses title.
func (r *PostRepository) TitleTaken(ctx context.Context, title, exceptID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("title = ?", title)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *PostRepository) ListByStatus(ctx context.Context, status models.PostStatus) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Preload("Author").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// Page selects a window of a listing. A zero Limit returns every row.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return q
	}
	return q.Offset(p.Offset).Limit(p.Limit)
}

// ListPublished returns one page of published posts and the total number of
// matches. A non-empty categorySlug keeps posts whose category slug equals it,
// the same comparison models.CategorySlug makes.
func (r *PostRepository) ListPublished(ctx context.Context, categorySlug string, page Page) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("status = ?", models.StatusPublished)
	if categorySlug != "" {
		q = q.Where("LOWER(REPLACE(TRIM(category), ' ', '-')) = ?", strings.ToLower(categorySlug))
	}
	return r.findPage(q, page)
}

// Search matches published posts whose title or body contains query.
func (r *PostRepository) Search(ctx context.Context, query string, page Page) ([]models.Post, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("status = ?", models.StatusPublished).
		Where("LOWER(title) LIKE ? OR LOWER(body) LIKE ?", pattern, pattern)
	return r.findPage(q, page)
}

func (r *PostRepository) findPage(q *gorm.DB, page Page) ([]models.Post, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := page.apply(q.Preload("Author")).Order("created_at DESC").Find(&posts).Error
	return posts, total, err
}

// Related returns the other published posts in the same category.
func (r *PostRepository) Related(ctx context.Context, post *models.Post) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("category = ? AND id <> ? AND status = ?", post.Category, post.ID, models.StatusPublished).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// DueScheduled returns scheduled posts whose publish time is at or before now.
func (r *PostRepository) DueScheduled(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_datetime IS NOT NULL AND scheduled_datetime <= ?", models.StatusScheduled, now).
		Order("scheduled_datetime ASC").
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "views")
}

func (r *PostRepository) IncrementLikes(ctx context.Context, id string) error {
	return r.increment(ctx, id, "likes")
}

func (r *PostRepository) increment(ctx context.Context, id, column string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostRepository) Likes(ctx context.Context, id string) (int, error) {
	var likes []int
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Pluck("likes", &likes).Error
	if err != nil {
		return 0, err
	}
	if len(likes) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return likes[0], nil
}

// Delete removes a post and its comments. Callers run it inside a transaction.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
