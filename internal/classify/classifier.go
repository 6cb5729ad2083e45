package classify

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Default band thresholds.
const (
	DefaultAutoExecuteThreshold = 0.8
	DefaultAmbiguousThreshold   = 0.4
)

// Thresholds split confidence into bands. Confidence >= AutoExecute runs
// without confirmation; confidence < Ambiguous is not executed.
type Thresholds struct {
	AutoExecute float64
	Ambiguous   float64
}

// DefaultThresholds returns the built-in band thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoExecute: DefaultAutoExecuteThreshold,
		Ambiguous:   DefaultAmbiguousThreshold,
	}
}

// Band maps a confidence value to its band.
func (t Thresholds) Band(confidence float64) models.Band {
	switch {
	case confidence >= t.AutoExecute:
		return models.BandAuto
	case confidence >= t.Ambiguous:
		return models.BandPreview
	default:
		return models.BandAmbiguous
	}
}

// Classifier scores request text against an ordered rule table.
//
// For each operation type the score is the sum of the weights of its matched
// rules. The winner is the highest score; equal scores go to the operation
// whose first matched rule appears earliest in the table. Confidence is the
// winner's score, clamped to [0,1], multiplied by the winner's share of all
// matched weight. A Classifier is immutable and safe for concurrent use.
type Classifier struct {
	rules      []Rule
	bias       map[string]float64
	thresholds Thresholds
	logger     *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the built-in rule table.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// WithBias sets per-rule weight multipliers, usually derived from recorded
// feedback. Rules without an entry keep their declared weight.
func WithBias(bias map[string]float64) Option {
	return func(c *Classifier) {
		c.bias = make(map[string]float64, len(bias))
		for k, v := range bias {
			c.bias[k] = v
		}
	}
}

// WithThresholds overrides the band thresholds.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		c.thresholds = t
	}
}

// WithLogger sets the logger used for classification traces.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules:      DefaultRules(),
		thresholds: DefaultThresholds(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the classifier's band thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Band maps a confidence value to its band using the classifier's thresholds.
func (c *Classifier) Band(confidence float64) models.Band {
	return c.thresholds.Band(confidence)
}

type opScore struct {
	op    models.OperationType
	score float64
	first int
	rules []string
}

// Classify scores text and ctx and returns the resulting Intent. It never
// fails: text matching no rule yields an ambiguous intent with zero
// confidence. The same inputs always produce the same Intent.
func (c *Classifier) Classify(text string, ctx models.Context) models.Intent {
	return c.ClassifyRequest(&models.Request{Text: text, Context: ctx})
}

// ClassifyRequest classifies req. Caller parameters override extracted ones.
func (c *Classifier) ClassifyRequest(req *models.Request) models.Intent {
	lower := strings.ToLower(strings.TrimSpace(req.Text))
	params := Extract(req.Text)
	for k, v := range req.Params {
		params[k] = v
	}

	scores := make(map[models.OperationType]*opScore)
	var matched []string
	var total float64

	for i, r := range c.rules {
		if !r.Match(lower, params, req.Context) {
			continue
		}
		w := r.Weight * c.factor(r.ID)
		matched = append(matched, r.ID)
		total += w

		s, ok := scores[r.Op]
		if !ok {
			s = &opScore{op: r.Op, first: i}
			scores[r.Op] = s
		}
		s.score += w
		s.rules = append(s.rules, r.ID)
	}

	intent := models.Intent{
		Operation:    models.OpAmbiguous,
		Parameters:   params,
		MatchedRules: matched,
	}
	if matched == nil {
		intent.MatchedRules = []string{}
	}
	if total <= 0 {
		c.logger.Debug("no rule matched", zap.String("request_id", req.ID))
		return intent
	}

	ranked := make([]*opScore, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].first < ranked[j].first
	})

	for _, s := range ranked {
		intent.Alternatives = append(intent.Alternatives, models.Interpretation{
			Operation:  s.op,
			Confidence: confidence(s.score, total),
			Rules:      s.rules,
		})
	}

	best := intent.Alternatives[0]
	intent.Confidence = best.Confidence
	if c.thresholds.Band(best.Confidence) != models.BandAmbiguous {
		intent.Operation = best.Operation
	}

	c.logger.Debug("classified request",
		zap.String("request_id", req.ID),
		zap.String("operation", string(intent.Operation)),
		zap.String("best", string(best.Operation)),
		zap.Float64("confidence", intent.Confidence),
		zap.Strings("rules", intent.MatchedRules),
	)
	return intent
}

// Alternatives returns the ranked interpretations of text, best first.
func (c *Classifier) Alternatives(text string, ctx models.Context) []models.Interpretation {
	return c.Classify(text, ctx).Alternatives
}

func (c *Classifier) factor(ruleID string) float64 {
	if f, ok := c.bias[ruleID]; ok && f > 0 {
		return f
	}
	return 1.0
}

func confidence(score, total float64) float64 {
	raw := math.Max(0, math.Min(1, score))
	return round4(raw * (score / total))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
