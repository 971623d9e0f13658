// Package mailer renders transactional emails and delivers them through an
// SMTP relay from a queue, so request handlers never wait on the relay.
package mailer

import "time"

type Kind string

const (
	KindWelcome                   Kind = "welcome"
	KindNewPost                   Kind = "new_post"
	KindCertificate               Kind = "certificate"
	KindPasswordReset             Kind = "password_reset"
	KindPasswordResetConfirmation Kind = "password_reset_confirmation"
)

// Job is one queued email. Data holds the template fields for Kind.
type Job struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	To        string            `json:"to"`
	Name      string            `json:"name"`
	Data      map[string]string `json:"data,omitempty"`
	Attempts  int               `json:"attempts"`
	CreatedAt time.Time         `json:"createdAt"`
}
