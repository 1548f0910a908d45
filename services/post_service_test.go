package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"inkwell-api/models"
	"inkwell-api/repositories"
)

type postFixture struct {
	db       *gorm.DB
	repo     *repositories.PostRepository
	svc      *PostService
	notifier *mockNotifier
	admin    *models.User
	reader   *models.User
}

func newPostFixture(t *testing.T, notifyOK bool) *postFixture {
	t.Helper()

	db := newTestDB(t)
	repo := repositories.NewPostRepository(db)
	notifier := newMockNotifier(notifyOK)
	svc := NewPostService(db, repo, notifier, time.UTC, zap.NewNop().Sugar(), newTestMetrics())

	return &postFixture{
		db:       db,
		repo:     repo,
		svc:      svc,
		notifier: notifier,
		admin:    createUser(t, db, "admin@example.com", models.RoleAdmin),
		reader:   createUser(t, db, "reader@example.com", models.RoleReader),
	}
}

func postInput(title string, intent Intent) PostInput {
	return PostInput{
		Title:    title,
		Category: "Random Musings",
		Body:     "<p>Some thoughts</p>",
		ImgURL:   "https://example.com/cover.jpg",
		Intent:   intent,
	}
}

func (f *postFixture) notifications() int {
	count := 0
	for _, call := range f.notifier.Calls {
		if call.Method == "NotifyAllSubscribers" {
			count++
		}
	}
	return count
}

func TestCreatePublishedPostNotifies(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	result, err := f.svc.Create(ctx, f.admin, postInput("Hello", IntentPublish))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, result.Post.Status)
	assert.Nil(t, result.Post.ScheduledDatetime)
	assert.True(t, result.Notified)
	assert.False(t, result.NotificationFailed)
	assert.Equal(t, "New post created and notification sent to subscribers!", result.Message)
	assert.Equal(t, 1, f.notifications())

	stored, err := f.repo.FindByID(ctx, result.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, stored.AuthorID)
	assert.NotEmpty(t, stored.Date)
}

func TestCreateScheduledCombinesDateAndTime(t *testing.T) {
	f := newPostFixture(t, true)

	input := postInput("Later", IntentSchedule)
	input.ScheduleDate = "2030-05-01"
	input.ScheduleTime = "09:30"

	result, err := f.svc.Create(context.Background(), f.admin, input)
	require.NoError(t, err)

	assert.Equal(t, models.StatusScheduled, result.Post.Status)
	require.NotNil(t, result.Post.ScheduledDatetime)
	want := time.Date(2030, time.May, 1, 9, 30, 0, 0, time.UTC)
	assert.True(t, want.Equal(*result.Post.ScheduledDatetime), "got %v", result.Post.ScheduledDatetime)
	assert.False(t, result.Notified)
	assert.Equal(t, 0, f.notifications())
}

func TestScheduleAcceptsSeconds(t *testing.T) {
	f := newPostFixture(t, true)

	input := postInput("Later", IntentSchedule)
	input.ScheduleDate = "2030-05-01"
	input.ScheduleTime = "09:30:15"

	result, err := f.svc.Create(context.Background(), f.admin, input)
	require.NoError(t, err)
	assert.Equal(t, 15, result.Post.ScheduledDatetime.Second())
}

func TestScheduleRequiresDateAndTime(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Draft", IntentDraft))
	require.NoError(t, err)

	input := postInput("Renamed", IntentSchedule)
	input.ScheduleDate = "2030-05-01"

	_, err = f.svc.Update(ctx, f.admin, created.Post.ID, input)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "publish date and time are required when scheduling.", validationErr.Message)

	stored, err := f.repo.FindByID(ctx, created.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", stored.Title)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Nil(t, stored.ScheduledDatetime)

	_, err = f.svc.Create(ctx, f.admin, input)
	require.ErrorAs(t, err, &validationErr)
}

func TestScheduleRejectsMalformedDate(t *testing.T) {
	f := newPostFixture(t, true)

	input := postInput("Bad date", IntentSchedule)
	input.ScheduleDate = "01/05/2030"
	input.ScheduleTime = "09:30"

	_, err := f.svc.Create(context.Background(), f.admin, input)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "schedule_date", validationErr.Field)
}

func TestMissingFieldsAreRejected(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*PostInput)
		field string
	}{
		{"title", func(in *PostInput) { in.Title = "  " }, "title"},
		{"category", func(in *PostInput) { in.Category = "" }, "category"},
		{"body", func(in *PostInput) { in.Body = "" }, "body"},
		{"image", func(in *PostInput) { in.ImgURL = "" }, "img_url"},
		{"intent", func(in *PostInput) { in.Intent = "" }, "intent"},
		{"unknown intent", func(in *PostInput) { in.Intent = "archive" }, "intent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := postInput("Incomplete", IntentPublish)
			tt.edit(&input)

			_, err := f.svc.Create(ctx, f.admin, input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
	assert.Equal(t, 0, f.notifications())
}

func TestDraftThenPublishNotifiesOnce(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Story", IntentDraft))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, created.Post.Status)
	assert.Equal(t, "Post saved successfully!", created.Message)
	assert.Equal(t, 0, f.notifications())

	published, err := f.svc.Update(ctx, f.admin, created.Post.ID, postInput("Story", IntentPublish))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Post.Status)
	assert.Equal(t, "New post published and notification sent to subscribers!", published.Message)
	assert.Equal(t, 1, f.notifications())

	edited, err := f.svc.Update(ctx, f.admin, created.Post.ID, postInput("Story, revised", IntentPublish))
	require.NoError(t, err)
	assert.False(t, edited.Notified)
	assert.Equal(t, "Post updated successfully!", edited.Message)
	assert.Equal(t, 1, f.notifications())
}

func TestPublishingScheduledPostClearsSchedule(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	input := postInput("Queued", IntentSchedule)
	input.ScheduleDate = "2030-05-01"
	input.ScheduleTime = "09:30"
	created, err := f.svc.Create(ctx, f.admin, input)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.admin, created.Post.ID, postInput("Queued", IntentPublish))
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, created.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
	assert.Nil(t, stored.ScheduledDatetime)
	assert.Equal(t, 1, f.notifications())
}

func TestMovesBetweenDraftAndScheduledNeverNotify(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Pending", IntentDraft))
	require.NoError(t, err)

	scheduled := postInput("Pending", IntentSchedule)
	scheduled.ScheduleDate = "2030-05-01"
	scheduled.ScheduleTime = "09:30"

	_, err = f.svc.Update(ctx, f.admin, created.Post.ID, scheduled)
	require.NoError(t, err)
	back, err := f.svc.Update(ctx, f.admin, created.Post.ID, postInput("Pending", IntentDraft))
	require.NoError(t, err)

	assert.Nil(t, back.Post.ScheduledDatetime)
	assert.Equal(t, 0, f.notifications())
}

func TestUnpublishingDoesNotNotify(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Live", IntentPublish))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.admin, created.Post.ID, postInput("Live", IntentDraft))
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifications())
}

func TestDuplicateTitle(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin, postInput("Same", IntentDraft))
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, f.admin, postInput("Other", IntentDraft))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.admin, postInput("Same", IntentPublish))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.svc.Update(ctx, f.admin, other.Post.ID, postInput("Same", IntentDraft))
	assert.ErrorIs(t, err, ErrDuplicate)

	var count int64
	require.NoError(t, f.db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 0, f.notifications())
}

func TestNotificationFailureKeepsPost(t *testing.T) {
	f := newPostFixture(t, false)
	ctx := context.Background()

	result, err := f.svc.Create(ctx, f.admin, postInput("Unlucky", IntentPublish))
	require.NoError(t, err)
	assert.True(t, result.NotificationFailed)
	assert.Equal(t, "Post created, but there was an issue sending notifications.", result.Message)

	stored, err := f.repo.FindByID(ctx, result.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
}

func TestOnlyAdminManagesPosts(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, nil, postInput("Anon", IntentPublish))
	assert.ErrorIs(t, err, ErrAuth)

	_, err = f.svc.Create(ctx, f.reader, postInput("Reader", IntentPublish))
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := f.svc.Create(ctx, f.admin, postInput("Mine", IntentPublish))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.reader, created.Post.ID, postInput("Hijacked", IntentPublish))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.reader, created.Post.ID), ErrForbidden)

	_, err = f.svc.Drafts(ctx, f.reader)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateMissingPost(t *testing.T) {
	f := newPostFixture(t, true)

	_, err := f.svc.Update(context.Background(), f.admin, "missing", postInput("Ghost", IntentPublish))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetHidesUnpublishedPosts(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, f.admin, postInput("Secret", IntentDraft))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.reader, draft.Post.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(ctx, nil, draft.Post.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)

	post, err := f.svc.Get(ctx, f.admin, draft.Post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Secret", post.Title)
}

func TestGetChecksCategorySlug(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Filed", IntentPublish))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, nil, created.Post.ID, "random-musings")
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, nil, created.Post.ID, "Random-Musings")
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, nil, created.Post.ID, "cooking")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewCountsViews(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Popular", IntentPublish))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.View(ctx, nil, created.Post.ID, "")
		require.NoError(t, err)
	}

	post, err := f.svc.View(ctx, nil, created.Post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 4, post.Views)
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Likeable", IntentPublish))
	require.NoError(t, err)

	const likers = 25
	var wg sync.WaitGroup
	errs := make(chan error, likers)
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Like(ctx, f.reader, created.Post.ID, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("like failed: %v", err)
	}

	likes, err := f.repo.Likes(ctx, created.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, likers, likes)
}

func TestLikeRequiresLogin(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Likeable", IntentPublish))
	require.NoError(t, err)

	_, err = f.svc.Like(ctx, nil, created.Post.ID, "")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = f.svc.Like(ctx, f.reader, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikeChecksCategory(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Likeable", IntentPublish))
	require.NoError(t, err)

	_, err = f.svc.Like(ctx, f.reader, created.Post.ID, "cooking")
	assert.ErrorIs(t, err, ErrNotFound)

	likes, err := f.svc.Like(ctx, f.reader, created.Post.ID, "Random-Musings")
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
}

func TestDeleteRemovesComments(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, postInput("Doomed", IntentPublish))
	require.NoError(t, err)

	comments := NewCommentService(repositories.NewCommentRepository(f.db), f.svc, 0, zap.NewNop().Sugar())
	_, err = comments.AddComment(ctx, f.reader, created.Post.ID, "first!", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.admin, created.Post.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Comment{}).Where("post_id = ?", created.Post.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, created.Post.ID), ErrNotFound)
}

func TestListingAndSearchShowPublishedOnly(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.admin, postInput("Go tips", IntentPublish))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.admin, postInput("Go drafts", IntentDraft))
	require.NoError(t, err)
	other := postInput("Bread", IntentPublish)
	other.Category = "Cooking"
	_, err = f.svc.Create(ctx, f.admin, other)
	require.NoError(t, err)

	posts, total, err := f.svc.ListPublished(ctx, "random-musings", repositories.Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Go tips", posts[0].Title)

	all, total, err := f.svc.ListPublished(ctx, "", repositories.Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, total)

	found, total, err := f.svc.Search(ctx, "go", repositories.Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Go tips", found[0].Title)

	empty, total, err := f.svc.Search(ctx, "   ", repositories.Page{})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, total)

	categories, err := f.svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cooking", "Random Musings"}, categories)

	drafts, err := f.svc.Drafts(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Go drafts", drafts[0].Title)
}

func TestOverdueScheduled(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	past := postInput("Missed", IntentSchedule)
	past.ScheduleDate = "2020-01-01"
	past.ScheduleTime = "08:00"
	_, err := f.svc.Create(ctx, f.admin, past)
	require.NoError(t, err)

	future := postInput("Upcoming", IntentSchedule)
	future.ScheduleDate = "2999-01-01"
	future.ScheduleTime = "08:00"
	_, err = f.svc.Create(ctx, f.admin, future)
	require.NoError(t, err)

	overdue, err := f.svc.OverdueScheduled(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Missed", overdue[0].Title)
	assert.Equal(t, models.StatusScheduled, overdue[0].Status)
}

func TestListingMatchesHyphenatedCategories(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	in := postInput("Dune", IntentPublish)
	in.Category = "Sci-Fi"
	created, err := f.svc.Create(ctx, f.admin, in)
	require.NoError(t, err)

	posts, _, err := f.svc.ListPublished(ctx, "sci-fi", repositories.Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Dune", posts[0].Title)

	_, err = f.svc.Get(ctx, nil, created.Post.ID, "sci-fi")
	require.NoError(t, err)

	posts, _, err = f.svc.ListPublished(ctx, "sci fi", repositories.Page{})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListingPaginates(t *testing.T) {
	f := newPostFixture(t, true)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		_, err := f.svc.Create(ctx, f.admin, postInput(title, IntentPublish))
		require.NoError(t, err)
	}

	first, total, err := f.svc.ListPublished(ctx, "", repositories.Page{Offset: 0, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.EqualValues(t, 5, total)

	last, total, err := f.svc.ListPublished(ctx, "", repositories.Page{Offset: 4, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last, 1)
	assert.EqualValues(t, 5, total)

	seen := map[string]bool{}
	for _, p := range append(first, last...) {
		seen[p.ID] = true
	}
	assert.Len(t, seen, 3)
}
