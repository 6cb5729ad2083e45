// Package models holds the data types shared by the router, decomposer,
// scheduler and their collaborators.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Request is a single natural-language request. It is not modified after
// NewRequest returns.
type Request struct {
	// ID uniquely identifies the request for logs and progress events.
	ID string `json:"id"`
	// Text is the raw request text.
	Text string `json:"text"`
	// ReceivedAt is the arrival timestamp.
	ReceivedAt time.Time `json:"received_at"`
	// Params are caller-supplied parameters. They override anything the
	// classifier extracts from Text.
	Params Params `json:"params,omitempty"`
	// Context carries recent-context signals used during classification.
	Context Context `json:"context"`
}

// NewRequest creates a Request with a fresh ID. The params map is copied.
func NewRequest(text string, params Params) *Request {
	return &Request{
		ID:         uuid.New().String()[:8],
		Text:       text,
		ReceivedAt: time.Now(),
		Params:     params.Clone(),
	}
}

// WithContext returns a copy of the request carrying ctx.
func (r *Request) WithContext(ctx Context) *Request {
	cp := *r
	cp.Params = r.Params.Clone()
	cp.Context = ctx.Clone()
	return &cp
}

// Context holds the signals about the caller's surroundings.
type Context struct {
	// CurrentDirectory is the working directory of the caller, if known.
	// Classification does not read it; it travels with the request unchanged.
	CurrentDirectory string `json:"current_directory,omitempty"`
	// ProjectType is a free-form project hint such as "go" or "python".
	// When set it lends a small weight to code operations.
	ProjectType string `json:"project_type,omitempty"`
	// RecentOperations lists the operation types of previous requests,
	// oldest first.
	RecentOperations []OperationType `json:"recent_operations,omitempty"`
}

// Clone returns a deep copy of the context.
func (c Context) Clone() Context {
	cp := c
	if c.RecentOperations != nil {
		cp.RecentOperations = append([]OperationType(nil), c.RecentOperations...)
	}
	return cp
}

// LastOperation returns the most recent operation type, if any.
func (c Context) LastOperation() (OperationType, bool) {
	if len(c.RecentOperations) == 0 {
		return "", false
	}
	return c.RecentOperations[len(c.RecentOperations)-1], true
}

// Params is a string-keyed parameter bag.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	cp := make(Params, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Bool reports whether key holds a true boolean.
func (p Params) Bool(key string) bool {
	v, ok := p[key].(bool)
	return ok && v
}

// String returns the string value for key, or "".
func (p Params) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Strings returns the string slice stored under key, or nil.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
