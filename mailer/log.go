package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer drops messages after logging their envelope. Bodies are never
// logged since they carry reset codes.
type LogMailer struct {
	log *zap.SugaredLogger
}

func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Infow("mail suppressed", "to", msg.To, "subject", msg.Subject)
	return nil
}
