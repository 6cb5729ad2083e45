package models

// OperationType is the kind of operation a request represents.
type OperationType string

const (
	OpFile          OperationType = "file"
	OpCode          OperationType = "code"
	OpGit           OperationType = "git"
	OpSearch        OperationType = "search"
	OpTerminal      OperationType = "terminal"
	OpOrchestration OperationType = "orchestration"
	OpAmbiguous     OperationType = "ambiguous"
)

// OperationTypes lists the concrete operation types in priority order.
// OpAmbiguous is not included.
var OperationTypes = []OperationType{
	OpFile,
	OpCode,
	OpGit,
	OpSearch,
	OpTerminal,
	OpOrchestration,
}

// Valid returns true if the operation type is a known value.
func (o OperationType) Valid() bool {
	switch o {
	case OpFile, OpCode, OpGit, OpSearch, OpTerminal, OpOrchestration, OpAmbiguous:
		return true
	default:
		return false
	}
}

// Intent is the typed classification of a Request.
type Intent struct {
	// Operation is the winning operation type, or OpAmbiguous.
	Operation OperationType `json:"operation_type"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	// Parameters holds extracted parameters merged with caller parameters.
	Parameters Params `json:"extracted_parameters,omitempty"`
	// MatchedRules lists the IDs of every rule that matched, in
	// declaration order.
	MatchedRules []string `json:"matched_rules"`
	// Alternatives ranks every operation type that scored, best first.
	Alternatives []Interpretation `json:"alternatives,omitempty"`
}

// Interpretation is one candidate reading of a request.
type Interpretation struct {
	Operation  OperationType `json:"operation_type"`
	Confidence float64       `json:"confidence"`
	// Rules are the rule IDs that contributed to this interpretation.
	Rules []string `json:"rules"`
}

// Band is the confidence band that drives downstream behavior.
type Band string

const (
	// BandAuto executes without confirmation.
	BandAuto Band = "auto"
	// BandPreview executes and attaches a preview artifact.
	BandPreview Band = "preview"
	// BandAmbiguous returns alternatives instead of executing.
	BandAmbiguous Band = "ambiguous"
)
