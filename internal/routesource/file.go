package routesource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/route-audit/internal/audit"
)

type routeFile struct {
	Routes []struct {
		Name string `yaml:"name"`
		Path string `yaml:"path"`
		Verb string `yaml:"verb"`
		Host string `yaml:"host"`
	} `yaml:"routes"`
}

// LoadFile reads a route table. .yaml and .yml files use the YAML layout
// (routes: [{path, verb, host, name}]); any other file is parsed as `rails routes` output.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("routes file not found: %s", path)
		}
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	var routes []audit.RawRoute
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		routes, err = ParseYAML(data)
	default:
		routes, err = ParseRailsRoutes(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse routes file %s: %w", path, err)
	}
	return NewStatic(routes), nil
}

// ParseYAML parses the YAML route table layout.
func ParseYAML(data []byte) ([]audit.RawRoute, error) {
	var rf routeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, err
	}
	routes := make([]audit.RawRoute, 0, len(rf.Routes))
	for i, r := range rf.Routes {
		path := strings.TrimSpace(r.Path)
		if path == "" {
			return nil, fmt.Errorf("route %d: path is required", i)
		}
		routes = append(routes, audit.RawRoute{
			Name:     r.Name,
			Template: path,
			VerbSpec: strings.TrimSpace(r.Verb),
			Host:     strings.TrimSpace(r.Host),
		})
	}
	return routes, nil
}

var (
	railsVerb      = regexp.MustCompile(`^[A-Z]+(\|[A-Z]+)*$`)
	railsSubdomain = regexp.MustCompile(`subdomain"?\s*(?:=>|:)\s*"([^"]+)"`)
)

// ParseRailsRoutes parses the table printed by `bin/rails routes`:
//
//	Prefix Verb URI Pattern          Controller#Action
//	 users GET  /users(.:format)     users#index
//	       POST /users(.:format)     users#create
//
// Lines without a path (headers, engine banners) are ignored. Routes without a
// verb column (mounted apps) get an empty verb spec.
func ParseRailsRoutes(r io.Reader) ([]audit.RawRoute, error) {
	var routes []audit.RawRoute
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		pathAt := -1
		for i, f := range fields {
			if strings.HasPrefix(f, "/") {
				pathAt = i
				break
			}
		}
		if pathAt < 0 {
			continue
		}

		route := audit.RawRoute{Template: fields[pathAt]}
		head := fields[:pathAt]
		if n := len(head); n > 0 && railsVerb.MatchString(head[n-1]) {
			route.VerbSpec = "^(" + head[n-1] + ")$"
			head = head[:n-1]
		}
		if len(head) > 0 {
			route.Name = head[0]
		}
		if m := railsSubdomain.FindStringSubmatch(line); m != nil {
			route.Host = m[1]
		}
		routes = append(routes, route)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}
