// File: services/intelligence/resolver.go
package intelligence

import "dentaflow/models"

// maxIntentsPerTurn caps how many intents a single message may carry; the
// classifier occasionally hallucinates long lists.
const maxIntentsPerTurn = 3

// ResolveIntents produces the canonical intent set for this turn. Intents
// classified from the current message win outright; only when the message
// yields none does the resolver fall back to intents still pending from the
// previous turn (an earlier ambiguous partial message). The result replaces
// session.intents wholesale — intents never accumulate across turns, which is
// what keeps an old CANCEL from leaking into a later unrelated turn.
func ResolveIntents(current []models.Intent, carried []models.Intent) []models.Intent {
	resolved := sanitizeIntents(current)
	if len(resolved) > 0 {
		return resolved
	}
	return sanitizeIntents(carried)
}

// sanitizeIntents drops values outside the closed enumeration, de-duplicates
// preserving order, and caps the list length.
func sanitizeIntents(intents []models.Intent) []models.Intent {
	seen := make(map[models.Intent]struct{}, len(intents))
	out := make([]models.Intent, 0, len(intents))
	for _, it := range intents {
		if !it.IsValid() {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
		if len(out) == maxIntentsPerTurn {
			break
		}
	}
	return out
}
