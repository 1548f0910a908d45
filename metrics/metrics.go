package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	PostsPublished     prometheus.Counter
	NotificationEmails *prometheus.CounterVec
	PostLikes          prometheus.Counter
	PasswordResets     *prometheus.CounterVec
	OverdueScheduled   prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the blog collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PostsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_published_total",
			Help: "Total number of transitions of a post into published",
		}),
		NotificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_notification_emails_total",
			Help: "New-post notification emails by result",
		}, []string{"result"}),
		PostLikes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_post_likes_total",
			Help: "Total number of post likes",
		}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_password_resets_total",
			Help: "Password reset events by stage",
		}, []string{"stage"}),
		OverdueScheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blog_scheduled_posts_overdue",
			Help: "Scheduled posts whose publish time has passed without being published",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.PostsPublished,
		m.NotificationEmails,
		m.PostLikes,
		m.PasswordResets,
		m.OverdueScheduled,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler exposes the collectors registered on gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
