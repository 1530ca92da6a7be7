package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/route-audit/internal/audit"
	"github.com/kjstillabower/route-audit/internal/config"
)

const routesFixture = `users GET /users(.:format) users#index
edit_user GET /users/:id/edit(.:format) users#edit
missing GET /missing/:id(.:format) missing#show
POST /items(.:format) items#create
GET /assets/:path assets#show
`

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "routeaudit" {
		t.Errorf("expected use 'routeaudit', got %q", cmd.Use)
	}
	if cmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("expected persistent verbose flag")
	}
	for _, name := range []string{"audit", "routes", "version"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %s subcommand", name)
		}
	}
}

func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()
	flags := map[string]string{
		"config":       "c",
		"routes":       "r",
		"target":       "t",
		"format":       "f",
		"output":       "o",
		"test-domain":  "",
		"scheme":       "",
		"metrics-file": "",
	}
	for name, short := range flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != short {
			t.Errorf("flag %s: expected shorthand %q, got %q", name, short, flag.Shorthand)
		}
	}
	if cmd.Long == "" {
		t.Error("expected non-empty long description")
	}
}

func TestNewRoutesCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRoutesCmd()
	if cmd.Flags().Lookup("routes") == nil {
		t.Error("expected routes flag")
	}
	if cmd.Flags().Lookup("target") != nil {
		t.Error("routes command should not contact a target")
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "routeaudit version ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRoutesCmd_ListsSynthesizedRequests(t *testing.T) {
	dir := t.TempDir()
	routesFile := writeFile(t, dir, "routes.txt", routesFixture)
	configFile := writeFile(t, dir, "audit.yaml", "{}\n")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"routes", "--config", configFile, "--routes", routesFile})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := out.String()
	for _, want := range []string{"/users\n", "/users/1/edit\n", "/missing/1\n", "POST", "/items\n", "/assets/1", "(excluded)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestAuditCmd_ReportsOrphanedRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			fmt.Fprint(w, "ok")
		case "/users/1/edit":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "ActiveRecord::RecordNotFound")
		case "/items":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "ActionController::ParameterMissing")
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "No route matches [%s] %q", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	routesFile := writeFile(t, dir, "routes.txt", routesFixture)
	configFile := writeFile(t, dir, "audit.yaml", "{}\n")
	metricsFile := filepath.Join(dir, "metrics", "routeaudit.prom")
	if err := os.MkdirAll(filepath.Dir(metricsFile), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"audit",
		"--config", configFile,
		"--routes", routesFile,
		"--target", srv.URL,
		"--metrics-file", metricsFile,
	})
	err := root.Execute()
	if !errors.Is(err, audit.ErrOrphanedRoutes) {
		t.Fatalf("Execute error = %v, want ErrOrphanedRoutes", err)
	}
	if !strings.Contains(out.String(), "\tget /missing/1\n") {
		t.Errorf("report missing orphan:\n%s", out.String())
	}
	if strings.Contains(out.String(), "/users/1/edit") {
		t.Errorf("record-not-found route should not be reported:\n%s", out.String())
	}
	if _, err := os.Stat(metricsFile); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}
}

func TestAuditCmd_WritesReportFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	dir := t.TempDir()
	routesFile := writeFile(t, dir, "routes.txt", routesFixture)
	configFile := writeFile(t, dir, "audit.yaml", "report:\n  format: markdown\n")
	reportFile := filepath.Join(dir, "out", "audit.md")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"audit", "-c", configFile, "-r", routesFile, "-t", srv.URL, "-o", reportFile})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "# Route Audit Report") {
		t.Errorf("report is not markdown:\n%s", data)
	}
}

func TestFinishAudit_WritesPartialReportOnInterrupt(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	rep := audit.NewReport()
	rep.Add(audit.ProbeResult{
		Request:        audit.Request{Method: "GET", URL: "/missing/1"},
		Classification: audit.ClassOrphaned,
	})

	var out bytes.Buffer
	err = finishAudit(&out, cfg, zaptest.NewLogger(t), rep, context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("finishAudit error = %v, want context.Canceled", err)
	}
	if !strings.Contains(out.String(), "\tget /missing/1\n") {
		t.Errorf("partial report not written:\n%s", out.String())
	}
}

func TestFinishAudit_NoReport(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	var out bytes.Buffer
	runErr := errors.New("enumerate routes: boom")
	if err := finishAudit(&out, cfg, zaptest.NewLogger(t), nil, runErr); !errors.Is(err, runErr) {
		t.Errorf("finishAudit error = %v, want %v", err, runErr)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestAuditCmd_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	routesFile := writeFile(t, dir, "routes.txt", routesFixture)
	configFile := writeFile(t, dir, "audit.yaml", "{}\n")
	t.Setenv("ROUTEAUDIT_TARGET", "")
	t.Setenv("ROUTEAUDIT_ROUTES_FILE", "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing target", []string{"audit", "-c", configFile, "-r", routesFile}, "no target"},
		{"missing routes", []string{"audit", "-c", configFile, "-t", "http://localhost:3000"}, "no route table"},
		{"bad format", []string{"audit", "-c", configFile, "-r", routesFile, "-t", "http://localhost:3000", "-f", "html"}, "report.format"},
		{"missing config", []string{"audit", "-c", filepath.Join(dir, "nope.yaml")}, "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetArgs(tt.args)
			err := root.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute error = %v, want message containing %q", err, tt.wantErr)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
