package classifier

import (
	"encoding/json"
	"log"
	"strings"
)

// StripCodeFence removes a single leading/trailing Markdown code fence from
// model output, tolerating an optional language tag after the opening fence.
// Text without a fence passes through unchanged.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop a language tag like "json" on the fence line
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// ParseVerdict parses a per-scene classification response. Any parse failure
// yields the safe default verdict: classification failure degrades to "not a
// highlight", it never raises.
func ParseVerdict(text string) Verdict {
	var raw struct {
		IsHighlight bool   `json:"is_highlight"`
		Title       string `json:"title"`
		Summary     string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &raw); err != nil {
		return Verdict{}
	}
	return Verdict{
		IsHighlight: raw.IsHighlight,
		Title:       strings.TrimSpace(raw.Title),
		Summary:     strings.TrimSpace(raw.Summary),
	}
}

// ParseCandidates parses a whole-video extraction response: a JSON array of
// candidate objects. A non-array top level yields an empty result and is
// logged; individually invalid items are dropped by the caller's validation
// pass, not here.
func ParseCandidates(text string) []Candidate {
	cleaned := StripCodeFence(text)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		log.Printf("[WARN] Classifier returned a non-array response, treating as no highlights: %v", err)
		return nil
	}

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		var c struct {
			StartSeconds json.Number `json:"start_s"`
			EndSeconds   json.Number `json:"end_s"`
			Title        string      `json:"title"`
			Summary      string      `json:"summary"`
		}
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		start, err1 := c.StartSeconds.Float64()
		end, err2 := c.EndSeconds.Float64()
		if err1 != nil || err2 != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			StartSeconds: start,
			EndSeconds:   end,
			Title:        c.Title,
			Summary:      c.Summary,
		})
	}
	return candidates
}

// ValidateCandidate applies the acceptance rules for untrusted model output:
// 0 <= start < end and non-empty trimmed title and summary. Failing
// candidates are expected noise and are dropped silently by callers.
func ValidateCandidate(c Candidate) (Candidate, bool) {
	c.Title = strings.TrimSpace(c.Title)
	c.Summary = strings.TrimSpace(c.Summary)
	if c.StartSeconds < 0 || c.StartSeconds >= c.EndSeconds {
		return Candidate{}, false
	}
	if c.Title == "" || c.Summary == "" {
		return Candidate{}, false
	}
	return c, true
}

// FilterCandidates validates every candidate and keeps at most maxCount
// survivors, in input order.
func FilterCandidates(candidates []Candidate, maxCount int) []Candidate {
	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if cleaned, ok := ValidateCandidate(c); ok {
			valid = append(valid, cleaned)
		}
	}
	if maxCount > 0 && len(valid) > maxCount {
		valid = valid[:maxCount]
	}
	return valid
}
