package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zedemy/zedemy/backend/go-services/internal/models"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

// Notifier turns domain events into queued mail jobs. Enqueue failures are
// logged and never returned to the caller.
type Notifier struct {
	queue       Queue
	frontendURL string
}

func NewNotifier(q Queue, frontendURL string) *Notifier {
	return &Notifier{queue: q, frontendURL: frontendURL}
}

func (n *Notifier) enqueue(ctx context.Context, kind Kind, user *models.User, data map[string]string) {
	if user == nil || user.Email == "" {
		return
	}
	j := Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        user.Email,
		Name:      user.Name,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	// the request may already be finishing; the push gets its own deadline
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := n.queue.Push(pushCtx, j); err != nil {
		metrics.MailJobs.WithLabelValues(string(kind), "failed").Inc()
		logger.Errorf("failed to enqueue %s email for %s: %v", kind, user.Email, err)
		return
	}
	metrics.MailJobs.WithLabelValues(string(kind), "enqueued").Inc()
}

func (n *Notifier) SendWelcomeEmail(ctx context.Context, user *models.User, ip, userAgent string) {
	n.enqueue(ctx, KindWelcome, user, map[string]string{
		"ip":        ip,
		"userAgent": userAgent,
		"link":      n.frontendURL,
	})
}

func (n *Notifier) SendNewPostEmail(ctx context.Context, user *models.User, post *models.Post) {
	n.enqueue(ctx, KindNewPost, user, map[string]string{
		"title":    post.Title,
		"category": post.Category,
		"link":     n.frontendURL + "/post/" + post.Slug,
	})
}

func (n *Notifier) SendCertificateEmail(ctx context.Context, user *models.User, category, fileURL string) {
	n.enqueue(ctx, KindCertificate, user, map[string]string{
		"category": category,
		"fileUrl":  fileURL,
	})
}

func (n *Notifier) SendPasswordResetEmail(ctx context.Context, user *models.User, token string) {
	n.enqueue(ctx, KindPasswordReset, user, map[string]string{
		"link": n.frontendURL + "/reset-password/" + token,
	})
}

func (n *Notifier) SendPasswordResetConfirmation(ctx context.Context, user *models.User) {
	n.enqueue(ctx, KindPasswordResetConfirmation, user, nil)
}
