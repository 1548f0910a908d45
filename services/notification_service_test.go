package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"inkwell-api/metrics"
	"inkwell-api/models"
	"inkwell-api/repositories"
)

func newNotificationFixture(t *testing.T, mailer *fakeMailer, emails ...string) (*NotificationService, *metrics.Metrics) {
	t.Helper()

	db := newTestDB(t)
	for _, email := range emails {
		createUser(t, db, email, models.RoleReader)
	}
	m := newTestMetrics()
	svc := NewNotificationService(repositories.NewUserRepository(db), mailer, "https://blog.example.com", 0, time.Minute, zap.NewNop().Sugar(), m)
	return svc, m
}

func samplePost() *models.Post {
	return &models.Post{
		ID:       "post-1",
		Title:    "Hello World",
		Category: "Random Musings",
		Body:     "Short body",
	}
}

func TestNotifyAllSubscribers(t *testing.T) {
	mailer := &fakeMailer{}
	svc, m := newNotificationFixture(t, mailer, "a@example.com", "", "b@example.com")

	ok := svc.NotifyAllSubscribers(context.Background(), samplePost())
	require.True(t, ok)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mailer.recipients())
	assert.Equal(t, []string{"New Blog Post: Hello World"}, mailer.sent[0].GetHeader("Subject"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationEmails.WithLabelValues("sent")))
}

func TestNotifyAbortsOnFirstFailure(t *testing.T) {
	mailer := &fakeMailer{failOn: 2}
	svc, m := newNotificationFixture(t, mailer, "a@example.com", "b@example.com", "c@example.com")

	ok := svc.NotifyAllSubscribers(context.Background(), samplePost())
	assert.False(t, ok)

	assert.Equal(t, []string{"a@example.com"}, mailer.recipients())
	assert.Equal(t, 2, mailer.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationEmails.WithLabelValues("failed")))
}

func TestNotifyWithNoSubscribers(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newNotificationFixture(t, mailer)

	assert.True(t, svc.NotifyAllSubscribers(context.Background(), samplePost()))
	assert.Empty(t, mailer.recipients())
}

func TestNotifyStopsWhenContextEnds(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newNotificationFixture(t, mailer, "a@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, svc.NotifyAllSubscribers(ctx, samplePost()))
	assert.Empty(t, mailer.recipients())
}

func TestPostURL(t *testing.T) {
	post := samplePost()
	assert.Equal(t, "https://blog.example.com/random-musings/post/post-1", PostURL("https://blog.example.com/", post))
}
