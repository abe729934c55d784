package initializers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/mailer"
)

// NewMailer builds the mailer selected by MAIL_DRIVER.
func NewMailer(cfg *Config, log *zap.SugaredLogger) (mailer.Mailer, error) {
	switch cfg.MailDriver {
	case "smtp":
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			From:     cfg.EmailFrom,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "log":
		return mailer.NewLogMailer(log.Named("mailer")), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
}
