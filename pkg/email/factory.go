package email

import "fmt"

// Provider names accepted by NewFactory.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
	ProviderLog    = "log"
)

// NewFactory returns the sender factory for a configured provider name.
func NewFactory(provider, smtpHost, smtpPort string) (Factory, error) {
	switch provider {
	case ProviderSMTP:
		return NewSMTPFactory(smtpHost, smtpPort), nil
	case ProviderResend:
		return NewResendFactory(), nil
	case ProviderLog:
		return NewLogFactory(), nil
	default:
		return nil, fmt.Errorf("email: unknown provider %q", provider)
	}
}
