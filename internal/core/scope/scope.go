// Package scope contains the pure authority rules for cache gateways.
// A gateway may only act on requests inside its declared URL prefix;
// everything else must pass through untouched.
package scope

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Descriptor configures one cache gateway instance. The customer and
// admin gateways are the same component with different descriptors.
type Descriptor struct {
	Name            string   // "customer" or "admin"
	Prefix          string   // URL prefix this scope governs
	ExcludePrefixes []string // prefixes inside Prefix that belong to another scope
	Namespace       string   // cache partition namespace, e.g. "pantry-customer"
	FallbackPath    string   // navigation fallback page served offline
	PrecachePaths   []string // shell assets fetched at install time
}

// Governs reports whether path falls inside this scope and outside
// its exclusions. Exclusions are checked first so the customer scope
// ("/") never claims admin traffic.
func (d Descriptor) Governs(path string) bool {
	for _, ex := range d.ExcludePrefixes {
		if strings.HasPrefix(path, ex) {
			return false
		}
	}
	return strings.HasPrefix(path, d.Prefix)
}

// RequestContext provides context for interception guards.
type RequestContext struct {
	Method     string
	Path       string
	SameOrigin bool
}

// CanIntercept evaluates whether a gateway may handle a request.
// Rules:
// - Only GET requests are cacheable
// - Cross-origin requests are never intercepted
// - The path must be governed by the scope
func CanIntercept(d Descriptor, req RequestContext) GuardResult {
	if req.Method != "GET" {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("method %s is not cacheable", req.Method)}
	}
	if !req.SameOrigin {
		return GuardResult{Allowed: false, Reason: "cross-origin request"}
	}
	if !d.Governs(req.Path) {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("path %s is outside scope %s", req.Path, d.Name)}
	}
	return GuardResult{Allowed: true}
}

// CanRegister evaluates whether a scope may be registered from the
// given page path. Registering the admin gateway from a customer page
// (or the reverse) is a configuration error.
func CanRegister(d Descriptor, pagePath string) GuardResult {
	if !d.Governs(pagePath) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot register scope %s from path %s", d.Name, pagePath),
		}
	}
	return GuardResult{Allowed: true}
}

// Customer returns the customer-scope descriptor. It governs the whole
// origin except the admin prefix.
func Customer() Descriptor {
	return Descriptor{
		Name:            "customer",
		Prefix:          "/",
		ExcludePrefixes: []string{"/admin/"},
		Namespace:       "pantry-customer",
		FallbackPath:    "/offline",
		PrecachePaths:   []string{"/", "/menu", "/offline", "/manifest.webmanifest"},
	}
}

// Admin returns the admin-scope descriptor.
func Admin() Descriptor {
	return Descriptor{
		Name:          "admin",
		Prefix:        "/admin/",
		Namespace:     "pantry-admin",
		FallbackPath:  "/admin/offline",
		PrecachePaths: []string{"/admin/", "/admin/orders", "/admin/offline"},
	}
}
