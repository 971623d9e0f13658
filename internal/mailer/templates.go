package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

const layout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#f4f6fb;padding:24px">
<div style="max-width:600px;margin:auto;background:#fff;border-radius:8px;padding:32px">
<h2 style="color:#1b365d">Zedemy</h2>
{{template "body" .}}
<p style="color:#888;font-size:12px;margin-top:32px">You are receiving this email because you have an account on Zedemy.</p>
</div></body></html>`

var bodies = map[Kind]struct {
	subject string
	body    string
}{
	KindWelcome: {
		subject: "Welcome to Zedemy",
		body: `{{define "body"}}<p>Hi {{.Name}},</p>
<p>Welcome to Zedemy! Your account is ready and you can start learning right away.</p>
<p style="color:#666;font-size:13px">Signed in from {{.Data.ip}} using {{.Data.userAgent}}. If this wasn't you, reset your password.</p>
<p><a href="{{.Data.link}}">Start exploring</a></p>{{end}}`,
	},
	KindNewPost: {
		subject: "New post in {{.Data.category}}",
		body: `{{define "body"}}<p>Hi {{.Name}},</p>
<p>A new post was published in <strong>{{.Data.category}}</strong>, a category you follow:</p>
<h3>{{.Data.title}}</h3>
<p><a href="{{.Data.link}}">Read it now</a></p>{{end}}`,
	},
	KindCertificate: {
		subject: "Congratulations! Your {{.Data.category}} certificate",
		body: `{{define "body"}}<p>Congratulations {{.Name}}!</p>
<p>You completed every post in <strong>{{.Data.category}}</strong>. Your certificate is attached to this email.</p>
<p><a href="{{.Data.fileUrl}}">Download your certificate</a></p>{{end}}`,
	},
	KindPasswordReset: {
		subject: "Reset your Zedemy password",
		body: `{{define "body"}}<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="{{.Data.link}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>{{end}}`,
	},
	KindPasswordResetConfirmation: {
		subject: "Your Zedemy password was changed",
		body: `{{define "body"}}<p>Hi {{.Name}},</p>
<p>Your password was changed successfully. If you did not do this, contact support immediately.</p>{{end}}`,
	},
}

// Rendered is a composed email without attachments.
type Rendered struct {
	Subject string
	HTML    string
}

type compiled struct {
	subject *texttemplate.Template // subjects are not HTML-escaped
	body    *template.Template
}

var templates = mustCompile()

func mustCompile() map[Kind]compiled {
	out := make(map[Kind]compiled, len(bodies))
	for kind, b := range bodies {
		body := template.Must(template.New(string(kind)).Option("missingkey=zero").Parse(layout))
		template.Must(body.Parse(b.body))
		out[kind] = compiled{
			subject: texttemplate.Must(texttemplate.New(string(kind) + "_subject").Option("missingkey=zero").Parse(b.subject)),
			body:    body,
		}
	}
	return out
}

// Render fills the template for j.Kind.
func Render(j Job) (*Rendered, error) {
	t, ok := templates[j.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown mail kind %q: %w", j.Kind, apperr.ErrInvalid)
	}
	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, j); err != nil {
		return nil, apperr.Encoding("render subject", err)
	}
	if err := t.body.Execute(&body, j); err != nil {
		return nil, apperr.Encoding("render body", err)
	}
	return &Rendered{Subject: subject.String(), HTML: body.String()}, nil
}
