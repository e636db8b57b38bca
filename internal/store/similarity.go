package store

import (
	"regexp"
	"strings"
)

// DuplicateThreshold is the title-similarity ratio above which two records
// sharing company+location count as the same job. Strictly greater-than.
const DuplicateThreshold = 0.85

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// normalizeTitle lowercases, strips punctuation, and collapses whitespace
// so cosmetic differences don't defeat dedup.
func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = nonWordRe.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// similarityRatio returns 2*M/T where M is the total length of the matching
// blocks between the two strings and T the combined length. 1.0 means
// identical, 0.0 means nothing in common.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchingLen(ra, rb)
	return 2 * float64(matched) / float64(total)
}

// matchingLen sums the longest common block and recurses into the segments
// on either side of it.
func matchingLen(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingLen(a[:ai], b[:bi]) +
		matchingLen(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the longest common contiguous run, preferring
// the earliest position in a on ties.
func longestCommonBlock(a, b []rune) (bestA, bestB, bestSize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// positions[r] lists every index of rune r in b.
	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}

	// lengths[j] is the length of the common run ending at a[i-1], b[j-1].
	lengths := make(map[int]int)
	for i, r := range a {
		next := make(map[int]int, len(lengths))
		for _, j := range positions[r] {
			run := lengths[j-1] + 1
			next[j] = run
			if run > bestSize {
				bestA = i - run + 1
				bestB = j - run + 1
				bestSize = run
			}
		}
		lengths = next
	}
	return bestA, bestB, bestSize
}
