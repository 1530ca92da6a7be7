package audit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"text/template"
)

var sink int

func nilDerefError() (err error) {
	defer func() {
		err = recover().(error)
	}()
	var m *struct{ n int }
	sink = m.n
	return nil
}

func templateExecError() error {
	tmpl := template.Must(template.New("page").Parse("{{.Missing.Field}}"))
	return tmpl.Execute(&bytes.Buffer{}, struct{ Missing *struct{ Field string } }{})
}

// TestOutcomeFromError verifies that handler faults map to the expected outcome kinds,
// including wrapped sentinels and runtime errors.
func TestOutcomeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want OutcomeKind
	}{
		{"nil", nil, OutcomeHandled},
		{"record not found", ErrRecordNotFound, OutcomeRecordNotFound},
		{"wrapped record not found", fmt.Errorf("load user 1: %w", ErrRecordNotFound), OutcomeRecordNotFound},
		{"parameter missing", ErrParameterMissing, OutcomeParameterMissing},
		{"nil reference sentinel", ErrNilReference, OutcomeNilReference},
		{"template sentinel", ErrTemplate, OutcomeTemplateError},
		{"runtime nil dereference", nilDerefError(), OutcomeNilReference},
		{"template exec error", templateExecError(), OutcomeTemplateError},
		{"unknown", errors.New("database is locked"), OutcomeFault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutcomeFromError(tt.err)
			if got.Kind != tt.want {
				t.Errorf("OutcomeFromError() = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want Classification
	}{
		{OutcomeHandled, ClassHandled},
		{OutcomeNoRoute, ClassOrphaned},
		{OutcomeNoAction, ClassOrphaned},
		{OutcomeRecordNotFound, ClassExpectedNoise},
		{OutcomeParameterMissing, ClassExpectedNoise},
		{OutcomeNilReference, ClassExpectedNoise},
		{OutcomeTemplateError, ClassExpectedNoise},
		{OutcomeFault, ClassUnexpected},
	}
	for _, tt := range tests {
		if got := Classify(Outcome{Kind: tt.kind}); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestOutcomeKind_String(t *testing.T) {
	if got := OutcomeKind(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
	if got := OutcomeNoAction.String(); !strings.Contains(got, "action") {
		t.Errorf("String() = %q, want no_action", got)
	}
}
