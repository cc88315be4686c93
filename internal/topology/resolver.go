// Package topology maps code locations to owning logical services using
// an ordered rule list.
package topology

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ServiceUnknown is returned when no rule matches.
const ServiceUnknown = "unknown"

// Rule maps a glob pattern to a service name. Patterns match the
// namespace (dots treated as path separators) or the file path.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Service string `yaml:"service"`
}

// Resolver evaluates rules in configured order; first match wins. It is
// immutable after construction and safe for concurrent use.
type Resolver struct {
	rules []Rule
}

// NewResolver creates a resolver over the given ordered rules.
func NewResolver(rules []Rule) *Resolver {
	return &Resolver{rules: append([]Rule(nil), rules...)}
}

// Resolve maps a file path and namespace to a service name. Matching is
// case-insensitive; absence of any match yields ServiceUnknown.
func (r *Resolver) Resolve(filePath, namespace string) string {
	nsPath := strings.ToLower(strings.ReplaceAll(namespace, ".", "/"))
	fp := strings.ToLower(strings.ReplaceAll(filePath, "\\", "/"))

	for _, rule := range r.rules {
		pattern := strings.ToLower(rule.Pattern)
		if namespace != "" {
			if ok, _ := doublestar.Match(pattern, nsPath); ok {
				return rule.Service
			}
		}
		if filePath != "" {
			if ok, _ := doublestar.Match(pattern, fp); ok {
				return rule.Service
			}
		}
	}
	return ServiceUnknown
}

// ResolveToken matches a single query token (class name, dotted
// qualified name) against the rules, for resolving a target service
// from error-log keywords.
func (r *Resolver) ResolveToken(token string) string {
	return r.Resolve(token, token)
}
