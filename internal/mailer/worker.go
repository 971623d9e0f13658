package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/metrics"
)

const maxAttachmentBytes = 20 << 20

// Worker drains a Queue, renders each job and sends it, retrying transient
// failures with exponential backoff.
type Worker struct {
	queue       Queue
	sender      Sender
	client      *http.Client
	maxAttempts int
	retryBase   time.Duration
}

func NewWorker(q Queue, s Sender, maxAttempts int, retryBase time.Duration) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	return &Worker{
		queue:       q,
		sender:      s,
		client:      &http.Client{Timeout: 30 * time.Second},
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
	}
}

// Run processes jobs until ctx is cancelled or the queue is closed.
func (w *Worker) Run(ctx context.Context) {
	for {
		j, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			logger.Errorf("mail worker: %v", err)
			if errors.Is(err, apperr.ErrEncoding) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryBase):
			}
			continue
		}
		w.Process(ctx, j)
	}
}

// Process delivers one job. Failures after the last attempt are logged and
// the job is dropped.
func (w *Worker) Process(ctx context.Context, j Job) error {
	err := w.deliver(ctx, &j)
	if err != nil {
		metrics.MailJobs.WithLabelValues(string(j.Kind), "failed").Inc()
		logger.Errorf("mail %s (%s) to %s dropped after %d attempt(s): %v", j.ID, j.Kind, j.To, j.Attempts, err)
		return err
	}
	metrics.MailJobs.WithLabelValues(string(j.Kind), "sent").Inc()
	logger.Debugf("mail %s (%s) sent to %s", j.ID, j.Kind, j.To)
	return nil
}

func (w *Worker) deliver(ctx context.Context, j *Job) error {
	r, err := Render(*j)
	if err != nil {
		return err
	}
	msg := &Message{To: j.To, Name: j.Name, Subject: r.Subject, HTML: r.HTML}

	b := retry.WithMaxRetries(uint64(w.maxAttempts-1), retry.NewExponential(w.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		j.Attempts++
		if j.Kind == KindCertificate && len(msg.Attachments) == 0 && j.Data["fileUrl"] != "" {
			a, err := w.fetchAttachment(ctx, j.Data["fileUrl"])
			switch {
			case err == nil:
				msg.Attachments = append(msg.Attachments, *a)
			case j.Attempts < w.maxAttempts:
				logger.Warnf("mail %s attempt %d: %v", j.ID, j.Attempts, err)
				return retry.RetryableError(err)
			default:
				// the body still links to the file
				logger.Warnf("mail %s: sending without attachment: %v", j.ID, err)
			}
		}
		if err := w.sender.Send(ctx, msg); err != nil {
			logger.Warnf("mail %s attempt %d: %v", j.ID, j.Attempts, err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (w *Worker) fetchAttachment(ctx context.Context, url string) (*Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Upstream("attachment request", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream("fetch attachment", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream("fetch attachment", fmt.Errorf("%s: status %d", url, resp.StatusCode))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
	if err != nil {
		return nil, apperr.Upstream("read attachment", err)
	}
	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = "certificate.pdf"
	}
	return &Attachment{Filename: name, ContentType: "application/pdf", Data: data}, nil
}
