package llm

import "strings"

// textGenerationMarkers and skipMarkers drive the static capability filter:
// only chat/text-generation endpoints are eligible as fallback candidates.
// This is a capability classification, not a failure classification.
var (
	textGenerationMarkers = []string{"gemini", "gemma"}
	skipMarkers           = []string{"embedding", "imagen", "veo", "tts", "audio", "aqa"}
)

// IsTextGeneration reports whether an endpoint's display name identifies a
// chat-capable model rather than an embedding/image/audio one.
func IsTextGeneration(displayName string) bool {
	name := strings.ToLower(displayName)
	matched := false
	for _, marker := range textGenerationMarkers {
		if strings.Contains(name, marker) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, marker := range skipMarkers {
		if strings.Contains(name, marker) {
			return false
		}
	}
	return true
}

// Selector builds the ordered candidate list for each request attempt.
// Primary and fallback come from configuration (or discovery-time
// resolution); Discovered is the immutable startup snapshot.
type Selector struct {
	Primary    string
	Fallback   string
	Discovered []Endpoint
}

// Candidates returns the endpoints to try, in order: known-good endpoints
// led by the primary, then the fallback, then every remaining discovered
// text-generation endpoint, minus everything the cache currently excludes.
// The result may be empty.
func (s *Selector) Candidates(cache *StatusCache) []string {
	ordered := make([]string, 0, len(s.Discovered)+2)
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}

	add(s.Primary)
	for _, name := range cache.Working() {
		add(name)
	}
	add(s.Fallback)
	for _, ep := range s.Discovered {
		if !IsTextGeneration(ep.DisplayName) {
			continue
		}
		add(ep.Name)
	}

	candidates := ordered[:0]
	for _, name := range ordered {
		if excluded, _ := cache.IsExcluded(name); excluded {
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates
}

// ResolveDefaults picks primary and fallback endpoints from the discovered
// set using substring priority lists, falling back to the hard defaults
// when nothing matches. The fallback is always distinct from the primary.
func ResolveDefaults(discovered []Endpoint, primaryPriorities, fallbackPriorities []string) (string, string) {
	primary := matchPriority(discovered, primaryPriorities, "")
	if primary == "" {
		primary = DefaultPrimaryEndpoint
	}
	fallback := matchPriority(discovered, fallbackPriorities, primary)
	if fallback == "" {
		fallback = DefaultFallbackEndpoint
		if fallback == primary {
			fallback = DefaultPrimaryEndpoint
		}
	}
	return primary, fallback
}

func matchPriority(discovered []Endpoint, priorities []string, exclude string) string {
	for _, priority := range priorities {
		for _, ep := range discovered {
			if ep.Name == exclude {
				continue
			}
			if strings.Contains(strings.ToLower(ep.DisplayName), priority) {
				return ep.Name
			}
		}
	}
	return ""
}
