package mailer

import "errors"

var (
	ErrNoRecipient  = errors.New("mailer: email must have at least one recipient")
	ErrNoSubject    = errors.New("mailer: email must have a subject")
	ErrNoContent    = errors.New("mailer: email must have an HTML or text body")
	ErrRenderFailed = errors.New("mailer: failed to render template")
	ErrSendFailed   = errors.New("mailer: failed to send email")
)
