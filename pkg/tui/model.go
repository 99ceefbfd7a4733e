// Package tui is the full-screen chat interface. The bubbletea event loop is
// the only goroutine that touches the conversation store and the controller;
// network results come back to it as messages.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/controller"
	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/render"
)

const (
	title       = "Recipe Assistant"
	placeholder = "Enter your recipe question..."

	// header line + blank, and busy line + input line + status line
	headerHeight = 2
	footerHeight = 3
)

// Options configures the chat model.
type Options struct {
	// Style is passed to the markdown renderer.
	Style string

	// Endpoint is shown in the status line.
	Endpoint string
}

// settledMsg carries a request outcome back onto the event loop.
type settledMsg controller.Settlement

// Model is the bubbletea model of a chat session.
type Model struct {
	ctx      context.Context
	store    *conversation.Store
	ctrl     *controller.Controller
	renderer *render.Renderer
	opts     Options
	logger   *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   styles

	transcript string
	dirty      bool
	width      int
	height     int
	ready      bool
}

// New creates a chat model over store and ctrl. ctx is the parent of every
// request the session dispatches.
func New(ctx context.Context, store *conversation.Store, ctrl *controller.Controller, opts Options, logger *zap.Logger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer, err := render.New(render.Options{Style: opts.Style})
	if err != nil {
		return nil, err
	}
	// "auto" is resolved here, once. resize must not query the terminal
	// again while the program owns it.
	opts.Style = renderer.Style()

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	m := &Model{
		ctx:      ctx,
		store:    store,
		ctrl:     ctrl,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		styles:   defaultStyles(),
		dirty:    true,
	}

	// Every append re-renders the transcript on the next update.
	store.OnAppend(func(conversation.Turn) {
		m.dirty = true
	})

	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.ctrl.Close()
			return m, tea.Quit

		case tea.KeyEnter:
			if p := m.ctrl.Submit(m.ctx); p != nil {
				cmds = append(cmds, waitFor(p), m.spinner.Tick)
			}

		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.store.SetDraft(m.input.Value())
			cmds = append(cmds, cmd)
		}

	case settledMsg:
		if m.ctrl.Settle(controller.Settlement(msg)) {
			// The draft was cleared; the field follows.
			m.input.SetValue(m.store.Draft())
		}

	case spinner.TickMsg:
		if m.ctrl.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// waitFor blocks off the event loop until p settles.
func waitFor(p *controller.Pending) tea.Cmd {
	return func() tea.Msg {
		return settledMsg(p.Wait())
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	renderer, err := render.New(render.Options{Style: m.opts.Style, Width: max(width-2, 20)})
	if err != nil {
		m.logger.Warn("failed to rebuild renderer", zap.Error(err))
	} else {
		m.renderer = renderer
	}

	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 1)
	m.input.Width = max(width-lipgloss.Width(m.input.Prompt)-lipgloss.Width(m.button())-2, 10)
	m.ready = true
	m.dirty = true
}

// refresh re-renders the transcript after appends and keeps the newest turn
// in view.
func (m *Model) refresh() {
	if !m.dirty {
		return
	}
	m.dirty = false

	m.transcript = m.renderer.Transcript(m.store.Turns())
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

func (m *Model) status() string {
	s := fmt.Sprintf("%s · %d turns", m.opts.Endpoint, m.store.Len())
	if last, ok := m.store.Last(); ok && last.QueryID != "" {
		s += " · last " + last.QueryID
	}
	return s + " · enter send · esc quit"
}
