package inventory

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var skuFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeSKUPart strips diacritics, uppercases and keeps only [A-Z0-9 ].
func normalizeSKUPart(s string) string {
	folded, _, err := transform.String(skuFolder, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// GenerateSKU derives the variant SKU from the product name, the variant's
// immutable sequence number and its color:
//
//	"Licuadora Portátil Recargable", 5, "Negro" -> LPR-0005-NE
//	"Lámpara LED", 12, "Verde"                  -> LLX-0012-VE
//
// The product code is the initial of each of the first three normalized
// words, padded with X to three characters. Collisions are prevented
// structurally: sequence is unique per product, so two colors sharing a
// two-letter code is fine.
func GenerateSKU(productName string, sequence int, color string) string {
	words := strings.Fields(normalizeSKUPart(productName))

	code := make([]byte, 0, 3)
	for i := 0; i < len(words) && i < 3; i++ {
		code = append(code, words[i][0])
	}
	for len(code) < 3 {
		code = append(code, 'X')
	}

	colorCode := normalizeSKUPart(color)
	if len(colorCode) > 2 {
		colorCode = colorCode[:2]
	}

	return fmt.Sprintf("%s-%04d-%s", code, sequence, colorCode)
}
