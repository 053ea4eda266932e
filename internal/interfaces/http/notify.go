package http

import (
	"context"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	infra "github.com/pot-code/learnforge-gateway/internal/infrastructure"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// notification types
const (
	NotifyAlert   = "alert"
	NotifySummary = "summary"
)

// Notification websocket frame
type Notification struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message,omitempty"`
	Summary *domain.ProgressSummary `json:"summary,omitempty"`
}

// Notifier pushes alerts and summaries to the learner's open websockets
type Notifier struct {
	hub    *infra.Websocket
	logger *zap.Logger
}

var _ domain.Alerter = &Notifier{}

func NewNotifier(hub *infra.Websocket, logger *zap.Logger) *Notifier {
	return &Notifier{hub, logger}
}

// Alert implements domain.Alerter
func (n *Notifier) Alert(ctx context.Context, learnerID int, message string) {
	delivered := n.hub.Push(learnerID, &Notification{Type: NotifyAlert, Message: message})
	logging.ExtractLoggerFromContext(ctx, n.logger).Debug("alert pushed",
		zap.Int("learner.id", learnerID), zap.Int("ws.delivered", delivered))
}

// PushSummary progress.SummaryHook
func (n *Notifier) PushSummary(learnerID int, summary *domain.ProgressSummary) {
	n.hub.Push(learnerID, &Notification{Type: NotifySummary, Summary: summary})
}
