package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"inkwell-api/database"
	"inkwell-api/metrics"
	"inkwell-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Initialize("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop().Sugar()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Password: "not-a-real-hash",
		Name:     "User " + email,
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeMailer records every message. failOn, when positive, makes the n-th
// send fail with a transport error.
type fakeMailer struct {
	mu     sync.Mutex
	sent   []*gomail.Message
	calls  int
	failOn int
}

func (f *fakeMailer) From() string {
	return "Inkwell <noreply@example.com>"
}

func (f *fakeMailer) Send(ctx context.Context, m *gomail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return fmt.Errorf("%w: connection refused", ErrTransport)
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var to []string
	for _, m := range f.sent {
		to = append(to, m.GetHeader("To")...)
	}
	return to
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyAllSubscribers(ctx context.Context, post *models.Post) bool {
	args := m.Called(ctx, post)
	return args.Bool(0)
}

func newMockNotifier(ok bool) *mockNotifier {
	n := &mockNotifier{}
	n.On("NotifyAllSubscribers", mock.Anything, mock.Anything).Return(ok).Maybe()
	return n
}
