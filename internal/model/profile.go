package model

// DomainProfile parameterizes report generation for a query's domain:
// section layout, source authority hierarchy, and rating vocabulary.
// Created once by the classifier; immutable and read-only downstream.
type DomainProfile struct {
	Domain          string            `json:"domain"`             // e.g., "equity_research", "policy_analysis"
	SourceHierarchy []string          `json:"sourceHierarchy"`    // Authority tiers, most authoritative first
	Sections        []SectionSpec     `json:"sections"`           // Ordered section layout for the report
	RatingOptions   []string          `json:"ratingOptions"`      // Allowed values for the report rating
	Entities        map[string]string `json:"entities,omitempty"` // Extracted entity fields (e.g., ticker)
	Warnings        []string          `json:"warnings,omitempty"` // Non-fatal classification annotations
}

// SectionSpec declares one section of the report layout.
type SectionSpec struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SectionIDs returns the profile's section ids in declared order.
func (p *DomainProfile) SectionIDs() []string {
	ids := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// DefaultProfile returns the fallback profile used when classification fails.
// The raw query stands in for the domain subject; the generic layout works
// for any topic, which is what makes soft failure safe for this stage.
func DefaultProfile(query string) DomainProfile {
	return DomainProfile{
		Domain: "general_research",
		SourceHierarchy: []string{
			"primary documents and official records",
			"peer-reviewed and institutional analysis",
			"established press and industry publications",
			"commentary and secondary aggregation",
		},
		Sections: []SectionSpec{
			{ID: "cover", Title: "Overview"},
			{ID: "background", Title: "Background"},
			{ID: "current_state", Title: "Current State"},
			{ID: "key_drivers", Title: "Key Drivers"},
			{ID: "risks", Title: "Risks and Uncertainties"},
			{ID: "competing_views", Title: "Competing Views"},
			{ID: "outlook", Title: "Outlook"},
			{ID: "conclusion", Title: "Conclusion"},
		},
		RatingOptions: []string{"favorable", "neutral", "unfavorable"},
		Entities:      map[string]string{"subject": query},
	}
}

// TitleSectionIDs are section ids exempt from the zero-finding section drop
// during orphan cleanup.
var TitleSectionIDs = map[string]bool{
	"cover": true,
	"title": true,
}
