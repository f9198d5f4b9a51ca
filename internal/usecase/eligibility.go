package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Áreas de atuação atendidas pelo bot. Comparação sem acento: tanto
// "previdenciário" quanto "previdenciario" passam.
var eligibleAreas = map[string]bool{
	"previdenciario": true,
	"tributario":     true,
	"outros":         true,
}

const AreaUnknown = "unknown"

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldArea normaliza uma área para comparação: minúsculas, sem acentos,
// sem espaços nas pontas.
func FoldArea(area string) string {
	folded, _, err := transform.String(accentFolder, area)
	if err != nil {
		folded = area
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func IsEligibleArea(area string) bool {
	return eligibleAreas[FoldArea(area)]
}
