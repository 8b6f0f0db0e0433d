package resend

import "github.com/dmitrymomot/mailkit/pkg/mailer"

// Config holds Resend provider settings.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY,required"`
	SenderEmail string `env:"RESEND_FROM_EMAIL,required"`
	SenderName  string `env:"RESEND_FROM_NAME"`
}

// From returns the default sender address.
func (c Config) From() string {
	return mailer.Recipient(c.SenderName, c.SenderEmail)
}
