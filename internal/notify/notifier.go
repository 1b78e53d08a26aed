// Package notify publishes run summaries and data-completeness alerts.
// Delivery is best-effort: a failed publish is logged, never fatal.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Publisher delivers one payload to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RunSummary reports one completed date.
type RunSummary struct {
	DataDate  string `json:"data_date"`
	Comments  int    `json:"number_of_comments"`
	Dockets   int    `json:"number_of_dockets"`
	Documents int    `json:"number_of_documents"`
	ScrapedAt string `json:"scrape_timestamp"`
}

// HarvestAlert reports a harvested-vs-reported count mismatch.
type HarvestAlert struct {
	DataDate  string `json:"data_date"`
	Harvested int    `json:"harvested"`
	Reported  int    `json:"reported"`
}

// Notifier wraps a Publisher with best-effort semantics. A nil publisher
// disables notifications.
type Notifier struct {
	pub    Publisher
	topic  string
	logger *zap.Logger
}

// New builds a Notifier publishing to topic.
func New(pub Publisher, topic string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{pub: pub, topic: topic, logger: logger}
}

// RunCompleted announces a finished date.
func (n *Notifier) RunCompleted(ctx context.Context, summary RunSummary) {
	n.publish(ctx, summary)
}

// HarvestShortfall alerts that a date's harvest came up short of the
// API-reported total.
func (n *Notifier) HarvestShortfall(ctx context.Context, alert HarvestAlert) {
	n.publish(ctx, alert)
}

func (n *Notifier) publish(ctx context.Context, payload any) {
	if n.pub == nil {
		return
	}
	if _, err := n.pub.Publish(ctx, n.topic, payload); err != nil {
		n.logger.Warn("notification publish failed", zap.Error(err))
	}
}
