package audit

import "regexp"

// Sentinel is substituted for every named placeholder in a route template.
const Sentinel = "1"

var (
	formatSuffix = regexp.MustCompile(`\(\.:format\)`)
	placeholder  = regexp.MustCompile(`:[a-zA-Z_]+`)
)

// Synthesize turns a route into a concrete request: the optional format suffix is
// removed and every :name placeholder becomes Sentinel.
func Synthesize(d RouteDescriptor) Request {
	target := formatSuffix.ReplaceAllString(d.Target, "")
	target = placeholder.ReplaceAllString(target, Sentinel)
	return Request{Method: string(d.Verb), URL: target}
}
