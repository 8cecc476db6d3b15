package common

import "strings"

// NormalizeCAS strips a leading CAS prefix, surrounding noise, and zero
// padding from a CAS registry number. Returns "" for values that do not look
// like a CAS number at all.
func NormalizeCAS(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "CAS")
	cleaned = strings.TrimPrefix(cleaned, "cas")
	cleaned = strings.Trim(cleaned, " :#")
	cleaned = strings.TrimLeft(cleaned, "0")
	if !strings.Contains(cleaned, "-") {
		return ""
	}
	return cleaned
}

// NormalizeFormula removes whitespace and dot separators so formulas compare
// on element tokens alone. Case is preserved: "CO" and "Co" differ.
func NormalizeFormula(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	return cleaned
}
