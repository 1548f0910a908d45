package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"inkwell-api/metrics"
	"inkwell-api/models"
	"inkwell-api/repositories"
	"inkwell-api/utils"
)

// PreviewWordLimit is how much of the body goes into a notification email.
const PreviewWordLimit = 300

// Notifier announces a freshly published post. It reports false when
// delivery failed; the post itself is never affected.
type Notifier interface {
	NotifyAllSubscribers(ctx context.Context, post *models.Post) bool
}

type NotificationService struct {
	users     *repositories.UserRepository
	mailer    Mailer
	limiter   *rate.Limiter
	publicURL string
	timeout   time.Duration
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

// NewNotificationService paces sends at perSecond messages per second; a
// non-positive value disables pacing.
func NewNotificationService(users *repositories.UserRepository, mailer Mailer, publicURL string, perSecond float64, timeout time.Duration, log *zap.SugaredLogger, m *metrics.Metrics) *NotificationService {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &NotificationService{
		users:     users,
		mailer:    mailer,
		limiter:   rate.NewLimiter(limit, 1),
		publicURL: strings.TrimRight(publicURL, "/"),
		timeout:   timeout,
		log:       log,
		metrics:   m,
	}
}

// PostURL is the public link to a post.
func PostURL(publicURL string, post *models.Post) string {
	return fmt.Sprintf("%s/%s/post/%s", strings.TrimRight(publicURL, "/"), models.CategorySlug(post.Category), post.ID)
}

// NotifyAllSubscribers sends one email per registered user. The first
// transport error aborts the rest of the batch.
func (ns *NotificationService) NotifyAllSubscribers(ctx context.Context, post *models.Post) bool {
	if ns.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ns.timeout)
		defer cancel()
	}

	users, err := ns.users.ListSubscribers(ctx)
	if err != nil {
		ns.log.Errorw("failed to load subscribers", "post_id", post.ID, "error", err)
		ns.metrics.NotificationEmails.WithLabelValues("failed").Inc()
		return false
	}

	link := PostURL(ns.publicURL, post)
	preview := utils.TruncateWords(post.Body, PreviewWordLimit)

	sent := 0
	for _, user := range users {
		if user.Email == "" {
			continue
		}

		if err := ns.limiter.Wait(ctx); err != nil {
			ns.log.Errorw("notification batch timed out", "post_id", post.ID, "sent", sent, "error", err)
			ns.metrics.NotificationEmails.WithLabelValues("failed").Inc()
			return false
		}

		msg := NewPostNotificationMessage(ns.mailer.From(), user.Email, post, link, preview)
		if err := ns.mailer.Send(ctx, msg); err != nil {
			ns.log.Errorw("error sending notification", "post_id", post.ID, "to", user.Email, "sent", sent, "error", err)
			ns.metrics.NotificationEmails.WithLabelValues("failed").Inc()
			return false
		}
		sent++
		ns.metrics.NotificationEmails.WithLabelValues("sent").Inc()
	}

	ns.log.Infow("post notification sent", "post_id", post.ID, "recipients", sent)
	return true
}
