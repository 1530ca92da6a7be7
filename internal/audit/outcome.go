package audit

import (
	"errors"
	htmltemplate "html/template"
	"runtime"
	"strings"
	"text/template"
)

// OutcomeKind tags what happened when a synthesized request was issued.
type OutcomeKind int

const (
	OutcomeHandled OutcomeKind = iota
	// OutcomeNoRoute: no route or controller matched the path and method.
	OutcomeNoRoute
	// OutcomeNoAction: a route matched but has no handler behind it.
	OutcomeNoAction
	OutcomeRecordNotFound
	OutcomeParameterMissing
	OutcomeNilReference
	OutcomeTemplateError
	// OutcomeFault is any failure not covered above.
	OutcomeFault
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHandled:
		return "handled"
	case OutcomeNoRoute:
		return "no_route"
	case OutcomeNoAction:
		return "no_action"
	case OutcomeRecordNotFound:
		return "record_not_found"
	case OutcomeParameterMissing:
		return "parameter_missing"
	case OutcomeNilReference:
		return "nil_reference"
	case OutcomeTemplateError:
		return "template_error"
	case OutcomeFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Outcome is what a Harness reports for one request.
type Outcome struct {
	Kind   OutcomeKind
	Status int   // final HTTP status, 0 if no response was produced
	Err    error // underlying fault, if any
}

// Faults a handler can raise (panic with, or wrap) to signal a failure caused by the
// synthetic request data rather than by routing.
var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrParameterMissing = errors.New("required parameter missing")
	ErrNilReference     = errors.New("nil reference")
	ErrTemplate         = errors.New("template rendering failed")
)

// OutcomeFromError maps a fault raised by handler code to an Outcome.
// Unrecognized errors become OutcomeFault.
func OutcomeFromError(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeHandled}
	}
	return Outcome{Kind: faultKind(err), Err: err}
}

func faultKind(err error) OutcomeKind {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return OutcomeRecordNotFound
	case errors.Is(err, ErrParameterMissing):
		return OutcomeParameterMissing
	case errors.Is(err, ErrNilReference):
		return OutcomeNilReference
	case errors.Is(err, ErrTemplate):
		return OutcomeTemplateError
	}

	var rtErr runtime.Error
	if errors.As(err, &rtErr) && strings.Contains(rtErr.Error(), "nil pointer dereference") {
		return OutcomeNilReference
	}
	var execErr template.ExecError
	if errors.As(err, &execErr) {
		return OutcomeTemplateError
	}
	var escErr *htmltemplate.Error
	if errors.As(err, &escErr) {
		return OutcomeTemplateError
	}
	return OutcomeFault
}

// Classification is the audit's verdict on a single probe.
type Classification int

const (
	ClassHandled Classification = iota
	ClassOrphaned
	// ClassExpectedNoise: the request failed downstream of routing because of the
	// sentinel data, which proves a handler exists.
	ClassExpectedNoise
	ClassUnexpected
	ClassSkipped
)

func (c Classification) String() string {
	switch c {
	case ClassHandled:
		return "handled"
	case ClassOrphaned:
		return "orphaned"
	case ClassExpectedNoise:
		return "expected_noise"
	case ClassUnexpected:
		return "unexpected"
	case ClassSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Classify maps an Outcome to a Classification.
func Classify(o Outcome) Classification {
	switch o.Kind {
	case OutcomeHandled:
		return ClassHandled
	case OutcomeNoRoute, OutcomeNoAction:
		return ClassOrphaned
	case OutcomeRecordNotFound, OutcomeParameterMissing, OutcomeNilReference, OutcomeTemplateError:
		return ClassExpectedNoise
	default:
		return ClassUnexpected
	}
}
