// Package gateway holds the domain model for the service's HTTP entry point:
// one API, one integration and one route per function, and a default stage.
package gateway

import (
	"fmt"
	"strings"
)

// DefaultStage is the auto-deployed stage every API gets.
const DefaultStage = "$default"

// API is the reduced projection of a deployed HTTP API.
type API struct {
	ID       string
	Name     string
	Endpoint string
	Cors     *Cors
}

// Cors is the API-level CORS block, derived from a website's allowed
// origins list.
type Cors struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           int32
}

// Integration points a route at a function. The URI carries the function
// ARN, so the function name can be recovered from its trailing segment.
type Integration struct {
	ID            string
	FunctionName  string
	URI           string
	TimeoutMillis int32
}

// Route maps "METHOD /path" onto an integration.
type Route struct {
	ID            string
	Key           string
	IntegrationID string
	FunctionName  string
}

// DiffName implements diff.Named.
func (i Integration) DiffName() string { return i.FunctionName }

// DiffName implements diff.Named.
func (r Route) DiffName() string { return r.FunctionName }

// MaxIntegrationTimeout is the platform cap on integration timeouts.
const MaxIntegrationTimeout int32 = 30000

// IntegrationTimeout computes the invocation timeout in milliseconds for a
// function timeout in seconds, capped at the platform maximum.
func IntegrationTimeout(functionTimeout int32) int32 {
	millis := functionTimeout * 1000
	if millis > MaxIntegrationTimeout {
		return MaxIntegrationTimeout
	}
	return millis
}

// TranslatePath rewrites wildcard segments into uniquely numbered path
// parameters, left to right: /things/*/sub/* becomes /things/{p1}/sub/{p2}.
// A trailing slash is trimmed before parameterization.
func TranslatePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	segments := strings.Split(path, "/")
	n := 0
	for i, seg := range segments {
		if seg == "*" {
			n++
			segments[i] = fmt.Sprintf("{p%d}", n)
		}
	}
	return strings.Join(segments, "/")
}

// RouteKey builds the route key for a declared method and path pattern.
func RouteKey(method, path string) string {
	return strings.ToUpper(method) + " " + TranslatePath(path)
}

// FunctionNameFromURI recovers the deployed function name from an
// integration URI by parsing its trailing segment.
func FunctionNameFromURI(uri string) string {
	tail := uri
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	if i := strings.LastIndex(tail, ":"); i >= 0 {
		tail = tail[i+1:]
	}
	return tail
}

// CorsForOrigins derives the API CORS block from a list of allowed origins.
// A wildcard origin disables credentialed CORS, which the platform would
// otherwise reject.
func CorsForOrigins(origins []string) *Cors {
	if len(origins) == 0 {
		return nil
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
		}
	}
	return &Cors{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"content-type", "authorization"},
		AllowCredentials: allowCredentials,
		MaxAge:           600,
	}
}

// Equal reports whether two CORS blocks request the same configuration.
func (c *Cors) Equal(other *Cors) bool {
	if c == nil || other == nil {
		return c == other
	}
	return equalStrings(c.AllowOrigins, other.AllowOrigins) &&
		equalStrings(c.AllowMethods, other.AllowMethods) &&
		equalStrings(c.AllowHeaders, other.AllowHeaders) &&
		c.AllowCredentials == other.AllowCredentials &&
		c.MaxAge == other.MaxAge
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
