package model

// EvidenceItem represents a sourced quote or data point backing (or
// contradicting) a finding. Immutable once produced by the researcher.
type EvidenceItem struct {
	Source    string `json:"source"`              // Publication or document name
	Quote     string `json:"quote"`               // Verbatim supporting text
	URL       string `json:"url"`                 // Real locator or a provenance sentinel
	Category  string `json:"category,omitempty"`  // Evidence category (e.g., "filing", "news")
	Authority string `json:"authority,omitempty"` // Tier from the profile's source hierarchy
	Verified  bool   `json:"verified"`            // URL matched a real search result
}

// Provenance sentinels used in place of a URL when evidence has no single
// citable locator. Any other URL value is expected to be a real locator.
const (
	URLGeneral  = "general"  // Common knowledge in the domain
	URLVarious  = "various"  // Aggregated from multiple sources
	URLDerived  = "derived"  // Computed from other evidence
	URLInternal = "internal" // Model knowledge without external source
)

// IsSentinelURL reports whether url is a reserved provenance sentinel
// rather than a real locator.
func IsSentinelURL(url string) bool {
	switch url {
	case URLGeneral, URLVarious, URLDerived, URLInternal:
		return true
	}
	return false
}
