package audit

import (
	"context"
	"net/url"
	"strings"
)

// Verb is one of the canonical HTTP methods a route can be probed with.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbPatch  Verb = "PATCH"
	VerbDelete Verb = "DELETE"
)

// canonicalVerbs is the ordered set verb specs are normalized against. First match wins.
var canonicalVerbs = []Verb{VerbGet, VerbPost, VerbPut, VerbPatch, VerbDelete}

// Lower returns the verb in lowercase, as used in report entries.
func (v Verb) Lower() string {
	return strings.ToLower(string(v))
}

// RawRoute is a route table entry as exposed by the host framework.
type RawRoute struct {
	Name     string // optional, informational only
	Template string // path template, e.g. /users/:id(.:format)
	VerbSpec string // regular expression over method names; empty matches every method
	Host     string // optional subdomain constraint
}

// RouteSource exposes a read-only view of an application's route table.
type RouteSource interface {
	Routes(ctx context.Context) ([]RawRoute, error)
}

// RouteDescriptor is an enumerated route with its verb resolved to a canonical token.
type RouteDescriptor struct {
	Name     string
	Template string
	Verb     Verb
	Host     string
	// Target is Template, prefixed with scheme and test host when Host is set.
	Target string
}

// Request is a concrete request synthesized from a RouteDescriptor.
type Request struct {
	Method string
	URL    string
}

// String renders the request as a report entry: lowercase verb, space, url.
func (r Request) String() string {
	return strings.ToLower(r.Method) + " " + r.URL
}

// Path returns the path component of the URL, which may be host-relative or fully qualified.
func (r Request) Path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	return u.Path
}
