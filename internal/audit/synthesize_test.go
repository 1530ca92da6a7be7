package audit

import "testing"

// TestSynthesize verifies format suffix removal and sentinel substitution.
func TestSynthesize(t *testing.T) {
	tests := []struct {
		name   string
		route  RouteDescriptor
		method string
		url    string
	}{
		{"placeholder in middle", RouteDescriptor{Verb: VerbGet, Target: "/users/:id/edit"}, "GET", "/users/1/edit"},
		{"format suffix", RouteDescriptor{Verb: VerbGet, Target: "/posts/:id(.:format)"}, "GET", "/posts/1"},
		{"several placeholders", RouteDescriptor{Verb: VerbDelete, Target: "/users/:user_id/posts/:id(.:format)"}, "DELETE", "/users/1/posts/1"},
		{"no placeholders", RouteDescriptor{Verb: VerbPost, Target: "/items"}, "POST", "/items"},
		{"qualified url keeps port", RouteDescriptor{Verb: VerbGet, Target: "http://tenant.lvh.me:3232/projects/:id"}, "GET", "http://tenant.lvh.me:3232/projects/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(tt.route)
			if got.Method != tt.method || got.URL != tt.url {
				t.Errorf("Synthesize() = %s %s, want %s %s", got.Method, got.URL, tt.method, tt.url)
			}
		})
	}
}

func TestRequest_String(t *testing.T) {
	r := Request{Method: "GET", URL: "/missing/1"}
	if got := r.String(); got != "get /missing/1" {
		t.Errorf("String() = %q, want %q", got, "get /missing/1")
	}
}

func TestRequest_Path(t *testing.T) {
	tests := map[string]string{
		"/users/1/edit":                      "/users/1/edit",
		"http://tenant.lvh.me:3232/settings": "/settings",
		"/search?q=1":                        "/search",
	}
	for target, want := range tests {
		if got := (Request{Method: "GET", URL: target}).Path(); got != want {
			t.Errorf("Path(%q) = %q, want %q", target, got, want)
		}
	}
}
