package ideaflow

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
)

// stopWords is the fixed English stop-word list used to build keyword sets
// for Jaccard similarity, grounded on
// original_source/src/madspark/utils/novelty_filter.py.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "up": {},
	"about": {}, "into": {}, "through": {}, "during": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {}, "its": {}, "as": {}, "can": {},
}

var nonWordRE = regexp.MustCompile(`[^\w\s]`)

// NoveltyFilter deduplicates ideas by exact-hash and Jaccard-keyword
// similarity over normalized text, per spec §4.3.
type NoveltyFilter struct {
	mu        sync.Mutex
	threshold float64
	hashes    map[string]struct{}
	accepted  []acceptedIdea
}

type acceptedIdea struct {
	text     string
	keywords map[string]struct{}
}

// NewNoveltyFilter builds a filter that rejects anything whose max Jaccard
// similarity to an already-accepted idea is >= threshold.
func NewNoveltyFilter(threshold float64) *NoveltyFilter {
	return &NoveltyFilter{
		threshold: threshold,
		hashes:    make(map[string]struct{}),
	}
}

// FilterResult is the outcome of checking one idea.
type FilterResult struct {
	IsNovel         bool
	SimilarityScore float64
	SimilarTo       string
}

// normalize lowercases, strips non-word characters, and collapses internal
// whitespace, matching the original's normalization exactly.
func normalize(text string) string {
	lower := strings.ToLower(text)
	stripped := nonWordRE.ReplaceAllString(lower, "")
	fields := strings.Fields(stripped)
	return strings.Join(fields, " ")
}

func keywordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Filter checks one idea against the accumulated accepted set, recording it
// if novel.
func (f *NoveltyFilter) Filter(idea string) FilterResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(idea) == "" {
		return FilterResult{IsNovel: false, SimilarityScore: 1.0, SimilarTo: "Empty"}
	}

	normalized := normalize(idea)
	hash := md5Hex(normalized)
	if _, exists := f.hashes[hash]; exists {
		return FilterResult{IsNovel: false, SimilarityScore: 1.0, SimilarTo: "exact duplicate"}
	}

	keywords := keywordSet(normalized)
	maxSim := 0.0
	similarTo := ""
	for _, existing := range f.accepted {
		sim := jaccard(keywords, existing.keywords)
		if sim > maxSim {
			maxSim = sim
			similarTo = existing.text
		}
	}

	// With nothing accepted yet there is nothing to be similar to: the
	// first idea is always novel regardless of threshold (threshold=0.0
	// must still let exactly one idea through, not zero).
	if len(f.accepted) > 0 && maxSim >= f.threshold {
		return FilterResult{IsNovel: false, SimilarityScore: maxSim, SimilarTo: similarTo}
	}

	f.hashes[hash] = struct{}{}
	f.accepted = append(f.accepted, acceptedIdea{text: idea, keywords: keywords})
	return FilterResult{IsNovel: true, SimilarityScore: maxSim, SimilarTo: ""}
}

// FilterAll filters a list in order, preserving the order of survivors.
func (f *NoveltyFilter) FilterAll(ideas []string) []string {
	out := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if res := f.Filter(idea); res.IsNovel {
			out = append(out, idea)
		}
	}
	return out
}

// Reset clears all accumulated state.
func (f *NoveltyFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes = make(map[string]struct{})
	f.accepted = nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// JaccardSimilarity exposes the keyword-set similarity primitive for reuse
// by CandidateResult.SimilarityScore computation (AssembleResults, spec
// §4.10) and by a BookmarkStore's duplicate-check collaborator.
func JaccardSimilarity(a, b string) float64 {
	return jaccard(keywordSet(normalize(a)), keywordSet(normalize(b)))
}
