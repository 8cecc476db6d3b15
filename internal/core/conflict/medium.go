package conflict

import (
	"strings"

	"github.com/agenthands/flowlink/internal/core/common"
)

// Medium is the physical receiving environment used to disambiguate
// elementary flows.
type Medium string

const (
	MediumAir      Medium = "air"
	MediumWater    Medium = "water"
	MediumSoil     Medium = "soil"
	MediumResource Medium = "resource"
)

// ClassifyMedium resolves a physical medium from free text (category paths,
// usage context). Returns "" when no keyword matches; absence is never treated
// as a signal by the detector. Resource outranks water outranks soil outranks
// air, so "water extraction from ground" classifies as resource.
func ClassifyMedium(texts ...string) Medium {
	var combined strings.Builder
	for _, text := range texts {
		if text == "" {
			continue
		}
		combined.WriteString(common.Fold(text))
		combined.WriteByte(' ')
	}
	joined := combined.String()
	if joined == "" {
		return ""
	}

	if containsAny(joined, "resource", "extraction", "raw material", "in ground") {
		return MediumResource
	}
	if containsAny(joined, "water", "wastewater", "aquatic", "marine", "freshwater", "ocean", "river") {
		return MediumWater
	}
	if containsAny(joined, "soil", "ground", "land", "agricultural") {
		return MediumSoil
	}
	if containsAny(joined, "air", "atmosphere", "airborne") {
		return MediumAir
	}
	return ""
}

func containsAny(haystack string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
