package models

import "testing"

func TestSubtaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status SubtaskStatus
		want   bool
	}{
		{"pending is valid", StatusPending, true},
		{"ready is valid", StatusReady, true},
		{"running is valid", StatusRunning, true},
		{"succeeded is valid", StatusSucceeded, true},
		{"failed is valid", StatusFailed, true},
		{"skipped is valid", StatusSkipped, true},
		{"empty string is invalid", SubtaskStatus(""), false},
		{"unknown status is invalid", SubtaskStatus("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("SubtaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestSubtaskStatus_Terminal(t *testing.T) {
	terminal := map[SubtaskStatus]bool{
		StatusPending:   false,
		StatusReady:     false,
		StatusRunning:   false,
		StatusSucceeded: true,
		StatusFailed:    true,
		StatusSkipped:   true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("SubtaskStatus(%q).Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestSubtask_Dependencies(t *testing.T) {
	st := Subtask{
		ID: "review",
		DependsOn: []Dependency{
			{ID: "implement"},
			{ID: "research", Optional: true},
		},
	}

	ids := st.DependencyIDs()
	if len(ids) != 2 || ids[0] != "implement" || ids[1] != "research" {
		t.Errorf("DependencyIDs() = %v, want [implement research]", ids)
	}
	if st.IsOptional("implement") {
		t.Error("implement should be a required dependency")
	}
	if !st.IsOptional("research") {
		t.Error("research should be an optional dependency")
	}
	if st.IsOptional("missing") {
		t.Error("unknown dependency should not be optional")
	}
}

func TestOperationType_Valid(t *testing.T) {
	for _, op := range OperationTypes {
		if !op.Valid() {
			t.Errorf("OperationType(%q).Valid() = false", op)
		}
		if op == OpAmbiguous {
			t.Error("OperationTypes must not include OpAmbiguous")
		}
	}
	if !OpAmbiguous.Valid() {
		t.Error("OpAmbiguous should be valid")
	}
	if OperationType("shell").Valid() {
		t.Error("unknown operation type should be invalid")
	}
}

func TestToolDescriptor(t *testing.T) {
	tool := ToolDescriptor{
		Name:         "rm",
		Capabilities: []Capability{CapFileDelete},
		Destructive:  true,
		Available:    func(p Params) bool { return p.Bool("confirmed") },
	}

	if !tool.Provides(CapFileDelete) {
		t.Error("rm should provide file.delete")
	}
	if tool.Provides(CapFileRead) {
		t.Error("rm should not provide file.read")
	}
	if tool.IsAvailable(nil) {
		t.Error("rm should be unavailable without confirmation")
	}
	if !tool.IsAvailable(Params{"confirmed": true}) {
		t.Error("rm should be available when confirmed")
	}

	always := ToolDescriptor{Name: "read"}
	if !always.IsAvailable(nil) {
		t.Error("a nil predicate means always available")
	}
}
