package tui

// Palette of the trakr TUI. Values are lipgloss color strings.
const (
	ColorBorder = "#3A3F55" // separators, card borders

	// Text
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383" // closed session history
	ColorPlaceholder   = ColorSecondaryText
	ColorHelpText      = "240"

	// Accents
	ColorAccentMain   = "#7C3AED" // logo, line id
	ColorAccentBright = "#A78BFA" // clock, key hints, values

	ColorError = "#EF4444"
)
