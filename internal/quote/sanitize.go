package quote

import "strings"

// Field limits and allow-lists for questionnaire input. Everything outside
// an allow-list is dropped rather than rejected so a stale client keeps
// working after the questionnaire gains or loses options.
const (
	maxEmailLen   = 254
	maxCompanyLen = 120
)

var (
	allowedIndustries = map[string]struct{}{
		"retail":       {},
		"hospitality":  {},
		"services":     {},
		"healthcare":   {},
		"construction": {},
		"creative":     {},
		"other":        {},
	}

	allowedColorSchemes = map[string]struct{}{
		"ocean":  {},
		"forest": {},
		"sunset": {},
		"ruby":   {},
		"mono":   {},
	}
)

// Sanitize normalizes a submission in place of validation: trims and
// truncates free-text fields, lowercases enumerated ones, drops values
// outside their allow-list, and de-duplicates modules preserving order.
// Portal kind and tier survive unchanged; the calculator rejects unknowns.
func Sanitize(sub Submission) Submission {
	out := sub

	out.Email = truncate(strings.TrimSpace(sub.Email), maxEmailLen)
	out.Company = truncate(strings.TrimSpace(sub.Company), maxCompanyLen)
	out.PortalKind = strings.ToLower(strings.TrimSpace(sub.PortalKind))
	out.UserTier = strings.ToLower(strings.TrimSpace(sub.UserTier))
	if out.UserTier == "" {
		out.UserTier = "starter"
	}

	out.Industry = allowListed(sub.Industry, allowedIndustries)
	out.ColorScheme = allowListed(sub.ColorScheme, allowedColorSchemes)

	out.Modules = sanitizeModules(sub.Modules)
	return out
}

func sanitizeModules(modules []string) []string {
	out := make([]string, 0, len(modules))
	seen := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		name := strings.ToLower(strings.TrimSpace(m))
		if name == "" {
			continue
		}
		if _, ok := modulePrices[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func allowListed(value string, allowed map[string]struct{}) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if _, ok := allowed[v]; !ok {
		return ""
	}
	return v
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
