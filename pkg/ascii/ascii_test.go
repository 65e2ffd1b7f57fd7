package ascii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "single line",
			lines: []string{"Hello"},
			want:  "┌───────┐\n│ Hello │\n└───────┘\n",
		},
		{
			name:  "multiple lines",
			lines: []string{"Line 1", "Longer line here", "Short"},
			want: "┌──────────────────┐\n" +
				"│ Line 1           │\n" +
				"│ Longer line here │\n" +
				"│ Short            │\n" +
				"└──────────────────┘\n",
		},
		{
			name:  "wide runes",
			lines: []string{"资源", "ab"},
			want: "┌──────┐\n" +
				"│ 资源 │\n" +
				"│ ab   │\n" +
				"└──────┘\n",
		},
		{
			name:  "empty",
			lines: nil,
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Box(tt.lines))
		})
	}
}

func TestTable(t *testing.T) {
	lines := Table([][]string{
		{"Js", "2", "main.js"},
		{"Stylesheets", "0"},
		{"资源", "1", "a.css"},
	})
	assert.Equal(t, []string{
		"Js           2  main.js",
		"Stylesheets  0",
		"资源         1  a.css",
	}, lines)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "longer...", Truncate("longer value", 9))
	assert.Equal(t, "lo", Truncate("longer value", 2))
	assert.Equal(t, "", Truncate("x", 0))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Js", Title("js"))
	assert.Equal(t, "Vendor Scripts", Title("vendor_scripts"))
	assert.Equal(t, "Web Fonts", Title("web-fonts"))
}
