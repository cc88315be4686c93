package retriever

import (
	"regexp"
	"strings"

	"github.com/randalmurphy/rca-code-index/internal/topology"
)

// Query is a retrieval request. RawText is typically a production error
// message or stack trace. TargetService, when set by the caller,
// overrides service resolution from keywords.
type Query struct {
	RawText       string
	TopK          int
	TargetService string
}

var (
	// Exception-like suffixes: NullPointerException, TimeoutError.
	exceptionRe = regexp.MustCompile(`\b\w+(?:Exception|Error)\b`)
	// Stack frames: "at com.acme.booking.BookingService.createOrder(".
	frameRe = regexp.MustCompile(`\bat\s+([A-Za-z_][\w.$]*)\s*\(`)
	// Dotted qualified names.
	dottedRe = regexp.MustCompile(`\b[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)+\b`)
	// Capitalized multi-word identifiers: BookingService, createOrder
	// stays out, PascalCase only.
	camelRe = regexp.MustCompile(`\b[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]*)+\b`)
	// Service-role class suffixes used for topology token derivation.
	roleSuffixRe = regexp.MustCompile(`^([A-Z][A-Za-z0-9]*?)(Service|Controller|Repository)$`)
)

// ExtractKeywords derives retrieval keywords from raw error text:
// exception-like names, stack-frame qualified names, dotted names, and
// capitalized identifiers. Dotted names also contribute their segments,
// so "BookingService.createOrder" yields both sides. Order of first
// appearance is preserved, duplicates dropped.
func ExtractKeywords(raw string) []string {
	var keywords []string
	seen := make(map[string]bool)

	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	addDotted := func(name string) {
		add(name)
		for _, seg := range strings.Split(name, ".") {
			add(seg)
		}
	}

	for _, m := range exceptionRe.FindAllString(raw, -1) {
		add(m)
	}
	for _, m := range frameRe.FindAllStringSubmatch(raw, -1) {
		addDotted(m[1])
	}
	for _, m := range dottedRe.FindAllString(raw, -1) {
		addDotted(m)
	}
	for _, m := range camelRe.FindAllString(raw, -1) {
		add(m)
	}

	return keywords
}

// resolveService maps query keywords to a target service through the
// topology rules. Class names with service-role suffixes also try their
// stripped lowercase form, so BookingService can match a "booking*"
// rule. First keyword to resolve wins; no match yields ServiceUnknown.
func resolveService(topo *topology.Resolver, keywords []string) string {
	for _, kw := range keywords {
		if svc := topo.ResolveToken(kw); svc != topology.ServiceUnknown {
			return svc
		}
		if m := roleSuffixRe.FindStringSubmatch(kw); m != nil {
			if svc := topo.ResolveToken(strings.ToLower(m[1])); svc != topology.ServiceUnknown {
				return svc
			}
		}
	}
	return topology.ServiceUnknown
}
