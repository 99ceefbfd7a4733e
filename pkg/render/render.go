// Package render turns transcript turns into terminal output. Markdown goes
// through glamour; labels and source previews are styled with lipgloss.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/sous/pkg/conversation"
)

const (
	// StyleAuto picks dark or light from the terminal background.
	StyleAuto = "auto"
	// StylePlain renders without colors, for pipes and logs.
	StylePlain = "notty"

	sourcesHeader = "Reference Recipes:"
)

// Options configures a Renderer.
type Options struct {
	// Style is a glamour standard style name ("dark", "light", "notty", ...)
	// or StyleAuto.
	Style string

	// Width wraps rendered text. Zero uses 80.
	Width int
}

// Styles are the lipgloss styles around rendered markdown.
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Sources   lipgloss.Style
	Source    lipgloss.Style
	Meta      lipgloss.Style
}

// DefaultStyles returns the transcript styles.
func DefaultStyles() Styles {
	return Styles{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff71ce")).Bold(true),
		Sources:   lipgloss.NewStyle().Foreground(lipgloss.Color("#01cdfe")).Bold(true).MarginLeft(2),
		Source:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(4),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).MarginLeft(2),
	}
}

// Renderer renders turns. It is not safe for concurrent use.
type Renderer struct {
	md     *glamour.TermRenderer
	width  int
	style  string
	styles Styles
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	style := ResolveStyle(opts.Style)
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}

	return &Renderer{
		md:     md,
		width:  width,
		style:  style,
		styles: DefaultStyles(),
	}, nil
}

// ResolveStyle maps StyleAuto (or "") to a concrete glamour style.
func ResolveStyle(style string) string {
	if style != "" && style != StyleAuto {
		return style
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	return r.width
}

// Style returns the resolved glamour style name.
func (r *Renderer) Style() string {
	return r.style
}

// Markdown renders content. On a renderer error the raw content is returned:
// a transcript entry is never dropped for display reasons.
func (r *Renderer) Markdown(content string) string {
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// Turn renders one turn with its label, and for assistant turns the source
// previews and query bookkeeping.
func (r *Renderer) Turn(t conversation.Turn) string {
	var b strings.Builder

	switch t.Role {
	case conversation.RoleUser:
		b.WriteString(r.styles.User.Render("You"))
	default:
		b.WriteString(r.styles.Assistant.Render("Assistant"))
	}
	b.WriteString("\n")
	b.WriteString(r.Markdown(t.Content))

	// nil means the server sent no sources field; an empty list still gets a header.
	if t.Sources != nil {
		b.WriteString("\n")
		b.WriteString(r.styles.Sources.Render(sourcesHeader))
		for _, src := range t.Sources {
			b.WriteString("\n")
			b.WriteString(r.styles.Source.Width(r.width).Render(Preview(src)))
		}
	}

	if meta := metaLine(t); meta != "" {
		b.WriteString("\n")
		b.WriteString(r.styles.Meta.Render(meta))
	}

	return b.String()
}

// Transcript renders turns oldest first, separated by blank lines.
func (r *Renderer) Transcript(turns []conversation.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, r.Turn(t))
	}
	return strings.Join(parts, "\n\n")
}

func metaLine(t conversation.Turn) string {
	var parts []string
	if t.QueryID != "" {
		parts = append(parts, t.QueryID)
	}
	if t.ResponseTime > 0 {
		parts = append(parts, t.ResponseTime.Round(10*time.Millisecond).String())
	}
	return strings.Join(parts, " · ")
}
