package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/utils"
)

const logContentPreview = 500

// LogSender writes payloads to the log instead of delivering them. It is
// the default sender while a real delivery collaborator is wired in
// deployment.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, p Payload) error {
	s.logger.Info("notification payload",
		zap.String("channel", p.Channel),
		zap.String("target", p.Target),
		zap.String("subject", p.Subject),
		zap.String("content_preview", utils.TruncateForLog(p.Content, logContentPreview)),
	)
	return nil
}
