package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	HoloYellow = lipgloss.Color("#FFE81F")
	HoloBlue   = lipgloss.Color("#4BD5EE")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(HoloYellow)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(HoloYellow)

	LinkStyle = lipgloss.NewStyle().
			Foreground(HoloBlue)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Favorite marker
const FavoriteChar = "★"

var FavoriteStar = lipgloss.NewStyle().Foreground(HoloYellow).Render(FavoriteChar)

// Tab bar styles
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(HoloYellow).
			Bold(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(LightGray).
				Padding(0, 1)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(HoloYellow).
			Bold(true)
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Padding(1, 2)

	ErrorPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(1, 2)

	LoginBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(HoloYellow).
			Padding(1, 3).
			Width(44)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(HoloYellow)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Grid cell style
var (
	GridCellWidth = 22

	GridCellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1).
			Width(GridCellWidth)

	GridCellSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(HoloYellow).
				Padding(0, 1).
				Width(GridCellWidth)
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(HoloYellow)
)

// Match highlight styles for filtered names
var (
	MatchHighlightStyle = lipgloss.NewStyle().
				Foreground(HoloYellow).
				Bold(true)
)

// Helper functions

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// Pad pads a string to the given display width
func Pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// HighlightMatches renders the runes starting at the matched byte offsets in
// the highlight style
func HighlightMatches(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var b strings.Builder
	for i, r := range s {
		if set[i] {
			b.WriteString(MatchHighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortIndicator is the arrow shown next to the active sort column
func SortIndicator(direction string) string {
	switch direction {
	case "asc":
		return " ▲"
	case "desc":
		return " ▼"
	default:
		return ""
	}
}
