// Package classify maps a free-text query to a DomainProfile with a single
// LLM call. It is the only pipeline stage permitted to fail soft: a usable
// default profile always exists, so a parse failure degrades to the default
// with a recorded warning instead of aborting the run.
package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
)

// Classifier produces a DomainProfile for a query.
type Classifier struct {
	provider llm.Provider
}

// NewClassifier creates a new classifier
func NewClassifier(provider llm.Provider) *Classifier {
	return &Classifier{provider: provider}
}

// Classify maps the query to a domain profile. Upstream failures propagate;
// parse failures fall back to model.DefaultProfile with a warning attached.
func (c *Classifier) Classify(ctx context.Context, query string) (model.DomainProfile, error) {
	resp, err := c.provider.Invoke(ctx, llm.Request{
		System: classifySystem,
		User:   buildClassifyPrompt(query),
	})
	if err != nil {
		return model.DomainProfile{}, fmt.Errorf("classify: %w", err)
	}

	profile, parseErr := parseProfile(resp)
	if parseErr != nil {
		fallback := model.DefaultProfile(query)
		fallback.Warnings = append(fallback.Warnings,
			fmt.Sprintf("classification fell back to default profile: %v", parseErr))
		return fallback, nil
	}

	return profile, nil
}

func parseProfile(resp *llm.Response) (model.DomainProfile, error) {
	cleaned := jsonx.StripFences(resp.Text)

	var profile model.DomainProfile
	if err := json.Unmarshal([]byte(cleaned), &profile); err == nil {
		return validateProfile(profile)
	}

	if resp.StopReason == llm.StopTruncated {
		if repaired := jsonx.RepairTruncated(cleaned); repaired != "" {
			if err := json.Unmarshal([]byte(repaired), &profile); err == nil {
				return validateProfile(profile)
			}
		}
	}

	if candidate := jsonx.ExtractObject(cleaned); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &profile); err == nil {
			return validateProfile(profile)
		}
	}

	return model.DomainProfile{}, &jsonx.ParseError{
		Stage:      "classify",
		StopReason: string(resp.StopReason),
		Raw:        resp.Text,
	}
}

// validateProfile rejects profiles too thin to drive the rest of the
// pipeline; an unusable profile is treated the same as a parse failure.
func validateProfile(profile model.DomainProfile) (model.DomainProfile, error) {
	if profile.Domain == "" {
		return model.DomainProfile{}, fmt.Errorf("profile missing domain")
	}
	if len(profile.Sections) == 0 {
		return model.DomainProfile{}, fmt.Errorf("profile missing sections")
	}
	seen := make(map[string]bool, len(profile.Sections))
	for _, s := range profile.Sections {
		if s.ID == "" {
			return model.DomainProfile{}, fmt.Errorf("profile section missing id")
		}
		if seen[s.ID] {
			return model.DomainProfile{}, fmt.Errorf("duplicate profile section %q", s.ID)
		}
		seen[s.ID] = true
	}
	if len(profile.SourceHierarchy) == 0 {
		return model.DomainProfile{}, fmt.Errorf("profile missing source hierarchy")
	}
	return profile, nil
}
