package routesource

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kjstillabower/route-audit/internal/audit"
)

const railsRoutesOutput = `                   Prefix Verb   URI Pattern                     Controller#Action
                    users GET    /users(.:format)                users#index
                          POST   /users(.:format)                users#create
                edit_user GET    /users/:id/edit(.:format)       users#edit
                     user PATCH  /users/:id(.:format)            users#update
                          PUT    /users/:id(.:format)            users#update
                dashboard GET    /dashboard(.:format)            dashboard#show {:subdomain=>"tenant"}
                  reports GET    /reports(.:format)              reports#index {subdomain: "admin"}
              sidekiq_web        /sidekiq                        Sidekiq::Web

Routes for Rails::Engine:
`

// TestParseRailsRoutes verifies verb, name and subdomain extraction from `rails routes` output.
func TestParseRailsRoutes(t *testing.T) {
	got, err := ParseRailsRoutes(strings.NewReader(railsRoutesOutput))
	if err != nil {
		t.Fatalf("ParseRailsRoutes() error = %v", err)
	}
	want := []audit.RawRoute{
		{Name: "users", Template: "/users(.:format)", VerbSpec: "^(GET)$"},
		{Template: "/users(.:format)", VerbSpec: "^(POST)$"},
		{Name: "edit_user", Template: "/users/:id/edit(.:format)", VerbSpec: "^(GET)$"},
		{Name: "user", Template: "/users/:id(.:format)", VerbSpec: "^(PATCH)$"},
		{Template: "/users/:id(.:format)", VerbSpec: "^(PUT)$"},
		{Name: "dashboard", Template: "/dashboard(.:format)", VerbSpec: "^(GET)$", Host: "tenant"},
		{Name: "reports", Template: "/reports(.:format)", VerbSpec: "^(GET)$", Host: "admin"},
		{Name: "sidekiq_web", Template: "/sidekiq"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRailsRoutes() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
routes:
  - path: /health
    verb: GET
  - path: /dashboard
    verb: get
    host: tenant
    name: dashboard
`)
	got, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	want := []audit.RawRoute{
		{Template: "/health", VerbSpec: "GET"},
		{Name: "dashboard", Template: "/dashboard", VerbSpec: "get", Host: "tenant"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseYAML() = %+v, want %+v", got, want)
	}
}

func TestParseYAML_MissingPath(t *testing.T) {
	if _, err := ParseYAML([]byte("routes:\n  - verb: GET\n")); err == nil {
		t.Fatal("ParseYAML() expected error for route without path")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "routes.yaml")
	textPath := filepath.Join(dir, "routes.txt")
	if err := os.WriteFile(yamlPath, []byte("routes:\n  - path: /a\n    verb: POST\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(textPath, []byte(railsRoutesOutput), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile(yaml) error = %v", err)
	}
	routes, _ := src.Routes(context.Background())
	if len(routes) != 1 || routes[0].VerbSpec != "POST" {
		t.Errorf("LoadFile(yaml) routes = %+v", routes)
	}

	src, err = LoadFile(textPath)
	if err != nil {
		t.Fatalf("LoadFile(text) error = %v", err)
	}
	routes, _ = src.Routes(context.Background())
	if len(routes) != 8 {
		t.Errorf("LoadFile(text) returned %d routes, want 8", len(routes))
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("LoadFile() error = %v, want not found", err)
	}
}

func TestStatic_ReturnsCopy(t *testing.T) {
	src := NewStatic([]audit.RawRoute{{Template: "/a"}})
	routes, _ := src.Routes(context.Background())
	routes[0].Template = "/changed"
	again, _ := src.Routes(context.Background())
	if again[0].Template != "/a" {
		t.Error("Routes() exposed internal slice")
	}
}
