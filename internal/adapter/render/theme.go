package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive palette; lipgloss drops colors when NO_COLOR is set.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorError   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
)

var (
	textSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	textError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	textAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	textMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// symbolSet holds the glyphs used in terminal output.
type symbolSet struct {
	Success string
	Error   string
	Bullet  string
}

var (
	unicodeSymbols = symbolSet{Success: "✓", Error: "✗", Bullet: "•"}
	asciiSymbols   = symbolSet{Success: "[OK]", Error: "[ERR]", Bullet: "*"}
)

// detectSymbols picks ASCII glyphs when SALESDESK_ASCII_SYMBOLS is set or
// the locale is explicitly non-UTF-8.
func detectSymbols() symbolSet {
	if v := os.Getenv("SALESDESK_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return asciiSymbols
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		val := strings.ToLower(os.Getenv(key))
		if val == "" {
			continue
		}
		if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
			return unicodeSymbols
		}
		if val == "c" || val == "posix" {
			return asciiSymbols
		}
	}
	return unicodeSymbols
}
