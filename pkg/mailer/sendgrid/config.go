package sendgrid

// Config holds SendGrid provider settings.
type Config struct {
	APIKey      string `env:"SENDGRID_API_KEY,required"`
	SenderEmail string `env:"SENDGRID_FROM_EMAIL,required"`
	SenderName  string `env:"SENDGRID_FROM_NAME"`
}
