package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorInfo      = lipgloss.Color("#3A86FF") // info lines
	ColorSuccess   = lipgloss.Color("#00D26A") // success
	ColorWarning   = lipgloss.Color("#FFB800") // warnings, prompts
	ColorError     = lipgloss.Color("#FF4444") // errors
	ColorAddress   = lipgloss.Color("#00B4D8") // addresses, hashes
	ColorValue     = lipgloss.Color("#FFFFFF") // values
	ColorMeta      = lipgloss.Color("#555555") // labels
	ColorBorder    = lipgloss.Color("#1E3A5F") // UI chrome
	ColorChain     = lipgloss.Color("#9B5DE5") // network names, titles
	ColorHighlight = lipgloss.Color("#F15BB5") // selected rows
)

// Base styles.
var (
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleAddress = lipgloss.NewStyle().Foreground(ColorAddress)
	StyleValue   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	StyleMeta    = lipgloss.NewStyle().Foreground(ColorMeta)
	StyleChain   = lipgloss.NewStyle().Foreground(ColorChain).Bold(true)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(ColorHighlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorChain).
			Bold(true).
			MarginBottom(1)
)

// Level tags prefixed to console lines.
const (
	TagInfo    = "[INFO]"
	TagSuccess = "[SUCCESS]"
	TagWarning = "[WARNING]"
	TagError   = "[ERROR]"
)

// Info formats an informational line.
func Info(msg string) string { return StyleInfo.Render(TagInfo) + " " + msg }

// Success formats a success line.
func Success(msg string) string { return StyleSuccess.Render(TagSuccess) + " " + msg }

// Warn formats a warning line.
func Warn(msg string) string { return StyleWarning.Render(TagWarning) + " " + msg }

// Err formats an error line.
func Err(msg string) string { return StyleError.Render(TagError) + " " + msg }

// Addr formats an address or hash.
func Addr(a string) string { return StyleAddress.Render(a) }

// Val formats a value.
func Val(v string) string { return StyleValue.Render(v) }

// Meta formats label text.
func Meta(m string) string { return StyleMeta.Render(m) }

// ChainName formats a network name.
func ChainName(c string) string { return StyleChain.Render(c) }
