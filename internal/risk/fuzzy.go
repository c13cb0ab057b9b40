package risk

import "strings"

// Vocabularies used to normalize free-text project descriptors.
var (
	KnownPhases = []string{
		"foundation", "slabbing", "curing", "excavation", "finishing",
		"painting", "roofing", "formwork", "tiling", "waterproofing",
		"plumbing", "electrical", "roadwork", "bridgework",
	}

	KnownStructures = []string{"building", "bridge", "road", "dam", "tunnel", "warehouse"}
)

// defaultSimilarityCutoff is the minimum similarity for a fuzzy match.
const defaultSimilarityCutoff = 0.5

// NormalizeTerm fuzzy-matches free-text input against a fixed vocabulary.
// Input below the similarity cutoff passes through lowercased and trimmed
// rather than being rejected; empty input becomes "unknown".
func NormalizeTerm(term string, vocab []string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "unknown"
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range vocab {
		if s := similarity(term, candidate); s > bestScore {
			best, bestScore = candidate, s
		}
	}
	if bestScore >= defaultSimilarityCutoff {
		return best
	}
	return term
}

// similarity is 1 - editDistance/maxLen, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(editDistance(a, b))/float64(maxLen)
}

// editDistance is the Levenshtein distance with a rolling single-row table.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current := prev[0]
		prev[0] = i
		for j := 1; j <= len(rb); j++ {
			insertOrDelete := min(prev[j], prev[j-1]) + 1
			substitute := current
			if ra[i-1] != rb[j-1] {
				substitute++
			}
			current = prev[j]
			prev[j] = min(insertOrDelete, substitute)
		}
	}
	return prev[len(rb)]
}
