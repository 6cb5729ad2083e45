package feedback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Recorder appends one record per matched rule of a handled intent.
type Recorder struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record stores the outcome for every rule that matched intent. Intents
// with no matched rules record nothing.
func (r *Recorder) Record(ctx context.Context, intent models.Intent, success bool) error {
	if r == nil || r.store == nil || len(intent.MatchedRules) == 0 {
		return nil
	}
	at := r.now()
	records := make([]Record, 0, len(intent.MatchedRules))
	for _, id := range intent.MatchedRules {
		records = append(records, Record{RuleID: id, Success: success, RecordedAt: at})
	}
	if err := r.store.Append(ctx, records...); err != nil {
		return err
	}
	r.logger.Debug("recorded rule outcomes",
		zap.Strings("rules", intent.MatchedRules),
		zap.Bool("success", success),
	)
	return nil
}
