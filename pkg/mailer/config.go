package mailer

// Config holds mailer configuration.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	// ContentIDDomain is the right-hand side of generated content ids.
	ContentIDDomain string `env:"MAILER_CONTENT_ID_DOMAIN" envDefault:"localhost"`
}
