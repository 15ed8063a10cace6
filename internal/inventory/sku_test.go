package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSKU(t *testing.T) {
	cases := []struct {
		name     string
		sequence int
		color    string
		want     string
	}{
		{"Licuadora Portátil Recargable", 5, "Negro", "LPR-0005-NE"},
		{"Lámpara LED", 12, "Verde", "LLX-0012-VE"},
		{"Ventilador", 1, "Blanco", "VXX-0001-BL"},
		{"Juego de Ollas Antiadherentes", 230, "Rojo", "JDO-0230-RO"},
		{"Café", 7, "Ñ", "CXX-0007-N"},
		{"  plancha   a vapor ", 42, "gris oscuro", "PAV-0042-GR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateSKU(tc.name, tc.sequence, tc.color), "%s/%d/%s", tc.name, tc.sequence, tc.color)
	}
}

func TestGenerateSKUStableAcrossStockChanges(t *testing.T) {
	// sequence and product code are the identity; only a color change may
	// alter the SKU
	a := GenerateSKU("Lámpara LED", 12, "Verde")
	b := GenerateSKU("Lámpara LED", 12, "Verde")
	assert.Equal(t, a, b)

	c := GenerateSKU("Lámpara LED", 12, "Azul")
	assert.Equal(t, "LLX-0012-AZ", c)
	assert.NotEqual(t, a, c)
}
