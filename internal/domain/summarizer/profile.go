package summarizer

import "strings"

// ModelProfile describes the context window and price of a model family.
type ModelProfile struct {
	Prefix        string  `json:"prefix"`
	TokenLimit    int     `json:"tokenLimit"`
	PricePerToken float64 `json:"pricePerToken"`
}

// knownProfiles lists model families by id prefix. Prices are cents per token.
var knownProfiles = []ModelProfile{
	{Prefix: "gpt-3.5-turbo", TokenLimit: 4096, PricePerToken: 0.00015},
	{Prefix: "gpt-3.5-turbo-16k", TokenLimit: 16384, PricePerToken: 0.0003},
	{Prefix: "gpt-4", TokenLimit: 8192, PricePerToken: 0.003},
	{Prefix: "gpt-4-32k", TokenLimit: 32768, PricePerToken: 0.006},
	{Prefix: "gpt-4-turbo", TokenLimit: 128000, PricePerToken: 0.001},
	{Prefix: "gpt-4o", TokenLimit: 128000, PricePerToken: 0.00025},
	{Prefix: "gpt-4o-mini", TokenLimit: 128000, PricePerToken: 0.000015},
}

// ResolveProfile picks the longest known prefix of model. Unknown models get
// the profile with the smallest context window.
func ResolveProfile(model string) ModelProfile {
	model = strings.TrimSpace(model)
	var (
		best     ModelProfile
		found    bool
		smallest = knownProfiles[0]
	)
	for _, p := range knownProfiles {
		if p.TokenLimit < smallest.TokenLimit {
			smallest = p
		}
		if strings.HasPrefix(model, p.Prefix) && len(p.Prefix) > len(best.Prefix) {
			best = p
			found = true
		}
	}
	if !found {
		return smallest
	}
	return best
}

// TokenLimit returns the context window for model.
func TokenLimit(model string) int {
	return ResolveProfile(model).TokenLimit
}

// PricePerToken returns the informational price for model.
func PricePerToken(model string) float64 {
	return ResolveProfile(model).PricePerToken
}

// Profiles returns a copy of the known model families.
func Profiles() []ModelProfile {
	out := make([]ModelProfile, len(knownProfiles))
	copy(out, knownProfiles)
	return out
}
