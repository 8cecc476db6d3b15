package score

import (
	"strings"
	"unicode"
)

// Similarity rates two folded display names in [0, 1]. It takes the better of
// the sequence ratio and query-token coverage, so "water, fresh" still rates
// "freshwater" highly even though the characters are reordered.
func Similarity(queryName, candidateName string) float64 {
	ratio := Ratio(queryName, candidateName)
	if coverage := tokenCoverage(queryName, candidateName); coverage > ratio {
		return coverage
	}
	return ratio
}

// tokenCoverage is the fraction of query name tokens found as substrings of
// the candidate name. Tokens shorter than three runes are ignored.
func tokenCoverage(queryName, candidateName string) float64 {
	tokens := strings.FieldsFunc(queryName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	total, matched := 0, 0
	for _, token := range tokens {
		if len([]rune(token)) < 3 {
			continue
		}
		total++
		if strings.Contains(candidateName, token) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// Ratio computes a similarity in [0, 1] between two strings using the same
// matching-block measure as Python's difflib.SequenceMatcher, which the
// acceptance thresholds in this package are calibrated against. Inputs are
// compared rune-wise exactly as given; callers fold case beforehand.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}

	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matches := matchingTotal(ra, 0, len(ra), 0, len(rb), b2j)
	return 2 * float64(matches) / float64(total)
}

// matchingTotal sums the lengths of all matching blocks by recursively
// splitting around the longest common run.
func matchingTotal(a []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) int {
	besti, bestj, bestsize := longestMatch(a, alo, ahi, blo, bhi, b2j)
	if bestsize == 0 {
		return 0
	}
	total := bestsize
	total += matchingTotal(a, alo, besti, blo, bestj, b2j)
	total += matchingTotal(a, besti+bestsize, ahi, bestj+bestsize, bhi, b2j)
	return total
}

func longestMatch(a []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
