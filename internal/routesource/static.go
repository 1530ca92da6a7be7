// Package routesource provides audit.RouteSource implementations: a gorilla/mux
// router walker and route tables loaded from YAML or `rails routes` output.
package routesource

import (
	"context"

	"github.com/kjstillabower/route-audit/internal/audit"
)

// Static is a fixed route table.
type Static struct {
	routes []audit.RawRoute
}

// NewStatic returns a RouteSource over routes.
func NewStatic(routes []audit.RawRoute) *Static {
	return &Static{routes: routes}
}

// Routes returns a copy of the table.
func (s *Static) Routes(ctx context.Context) ([]audit.RawRoute, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]audit.RawRoute, len(s.routes))
	copy(out, s.routes)
	return out, nil
}
