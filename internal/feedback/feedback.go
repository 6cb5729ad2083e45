// Package feedback records classification outcomes per rule and turns them
// into confidence biases for the classifier.
package feedback

import (
	"context"
	"math"
	"time"
)

// Record is one append-only outcome observation for a rule.
type Record struct {
	RuleID     string
	Success    bool
	RecordedAt time.Time
}

// RuleStats aggregates the records of one rule.
type RuleStats struct {
	RuleID    string `json:"rule_id"`
	Successes int    `json:"successes"`
	Total     int    `json:"total"`
}

// SuccessRate returns Successes/Total, or 0 with no records.
func (s RuleStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Total)
}

// Store persists records. Records are never updated or deleted.
type Store interface {
	Append(ctx context.Context, records ...Record) error
	Stats(ctx context.Context) (map[string]RuleStats, error)
	Close() error
}

// Bias bounds: a rule that always fails keeps MinFactor of its weight; one
// that always succeeds gets MaxFactor.
const (
	MinFactor = 0.8
	MaxFactor = 1.2
)

// Biases converts stats into weight multipliers. Rules with fewer than
// minSamples records are left out, which keeps their declared weight.
func Biases(stats map[string]RuleStats, minSamples int) map[string]float64 {
	out := make(map[string]float64)
	for id, s := range stats {
		if s.Total == 0 || s.Total < minSamples {
			continue
		}
		f := MinFactor + (MaxFactor-MinFactor)*s.SuccessRate()
		out[id] = math.Round(f*1e4) / 1e4
	}
	return out
}
