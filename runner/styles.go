package runner

import "github.com/charmbracelet/lipgloss"

// Semantic colors.
var (
	colorOK    = lipgloss.Color("#10b981") // green-500
	colorFail  = lipgloss.Color("#ef4444") // red-500
	colorWarn  = lipgloss.Color("#eab308") // yellow-500
	colorBusy  = lipgloss.Color("#06b6d4") // cyan-500
	colorDim   = lipgloss.Color("#6b7280") // gray-500
	colorMuted = lipgloss.Color("#9ca3af") // gray-400
	colorText  = lipgloss.Color("#f8fafc") // slate-50

	colorAccent = lipgloss.Color("#3b82f6") // blue-500
)

// Styles holds the lipgloss styles used to render records and the REPL.
type Styles struct {
	// Status
	OK    lipgloss.Style
	Error lipgloss.Style
	Warn  lipgloss.Style
	Busy  lipgloss.Style

	// Text styles
	Dim    lipgloss.Style
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Index  lipgloss.Style
	Key    lipgloss.Style
	Value  lipgloss.Style
	Intent lipgloss.Style
	Prompt lipgloss.Style

	// Symbols
	SymbolOK      string
	SymbolFail    string
	SymbolWarn    string
	SymbolPointer string
	SymbolBullet  string
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		OK:    lipgloss.NewStyle().Foreground(colorOK).Bold(true),
		Error: lipgloss.NewStyle().Foreground(colorFail).Bold(true),
		Warn:  lipgloss.NewStyle().Foreground(colorWarn).Bold(true),
		Busy:  lipgloss.NewStyle().Foreground(colorBusy).Bold(true),

		Dim:    lipgloss.NewStyle().Foreground(colorDim),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Bold:   lipgloss.NewStyle().Bold(true),
		Index:  lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Key:    lipgloss.NewStyle().Foreground(colorMuted),
		Value:  lipgloss.NewStyle().Foreground(colorText),
		Intent: lipgloss.NewStyle().Foreground(colorAccent),
		Prompt: lipgloss.NewStyle().Foreground(colorBusy).Bold(true),

		SymbolOK:      "✓",
		SymbolFail:    "✗",
		SymbolWarn:    "!",
		SymbolPointer: "❯",
		SymbolBullet:  "-",
	}
}

// PlainStyles renders everything unstyled, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()

	s := DefaultStyles()
	s.OK, s.Error, s.Warn, s.Busy = plain, plain, plain, plain
	s.Dim, s.Muted, s.Bold, s.Index = plain, plain, plain, plain
	s.Key, s.Value, s.Intent, s.Prompt = plain, plain, plain, plain

	return s
}

// SpinnerFrames returns the braille spinner animation frames.
func SpinnerFrames() []string {
	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}
