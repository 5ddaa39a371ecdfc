// Package tui is the interactive country browser: a search box, a region
// filter, a paginated table and a guide viewer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/grandline-guide/internal/client/session"
	"github.com/isdelr/grandline-guide/internal/listing"
	"github.com/isdelr/grandline-guide/internal/models"
)

const (
	guideFailureText = "Sorry! Could not load country guide."
	guideTimeout     = 90 * time.Second
	defaultWidth     = 100
	defaultHeight    = 30
)

// Listing is implemented by listing.Controller.
type Listing interface {
	Start()
	SetSearch(search string)
	SetRegion(region string)
	NextPage() bool
	PrevPage() bool
	View() listing.View
}

// GuideFetcher is implemented by the backend API client.
type GuideFetcher interface {
	CountryGuide(ctx context.Context, country string) (string, error)
}

type mode int

const (
	modeList mode = iota
	modeGuide
)

// RefreshMsg tells the model to re-read the listing state.
type RefreshMsg struct{}

type guideMsg struct {
	seq  int
	text string
	err  error
}

// Model is the bubbletea model of the browser.
type Model struct {
	listing Listing
	guides  GuideFetcher
	session session.Session
	styles  Styles

	search   textinput.Model
	table    table.Model
	spinner  spinner.Model
	viewport viewport.Model

	view      listing.View
	regionIdx int
	mode      mode

	selected     models.Country
	guideSeq     int
	guideLoading bool
	guideErr     error

	width  int
	height int
}

// New creates the browser model.
func New(l Listing, guides GuideFetcher, sess session.Session) Model {
	search := textinput.New()
	search.Placeholder = "Country name or code (e.g. japan, jpn)"
	search.CharLimit = 60
	search.Width = 40
	search.Focus()

	t := table.New(
		table.WithColumns(columns(defaultWidth)),
		table.WithFocused(true),
		table.WithHeight(listing.PageSize+2),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		listing:  l,
		guides:   guides,
		session:  sess,
		styles:   DefaultStyles(),
		search:   search,
		table:    t,
		spinner:  sp,
		viewport: viewport.New(defaultWidth, defaultHeight-12),
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

func columns(width int) []table.Column {
	name := max(18, width/5)
	return []table.Column{
		{Title: "Country", Width: name},
		{Title: "Population", Width: 15},
		{Title: "Region", Width: 10},
		{Title: "Capital", Width: 16},
		{Title: "Languages", Width: max(12, width-name-15-10-16-10)},
	}
}

// Init starts the initial listing load.
func (m Model) Init() tea.Cmd {
	l := m.listing
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		func() tea.Msg {
			l.Start()
			return RefreshMsg{}
		},
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-12)
		return m, nil

	case RefreshMsg:
		m.applyView(m.listing.View())
		return m, nil

	case guideMsg:
		if msg.seq != m.guideSeq || m.mode != modeGuide {
			return m, nil
		}
		m.guideLoading = false
		m.guideErr = msg.err
		if msg.err == nil {
			m.viewport.SetContent(renderGuide(msg.text, m.viewport.Width))
			m.viewport.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode == modeGuide {
			return m.updateGuide(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.search.Value() == "" {
			return m, tea.Quit
		}
		m.search.SetValue("")
		m.listing.SetSearch("")
	case "tab":
		m.regionIdx = (m.regionIdx + 1) % len(listing.Regions)
		m.listing.SetRegion(listing.Regions[m.regionIdx])
	case "shift+tab":
		m.regionIdx = (m.regionIdx - 1 + len(listing.Regions)) % len(listing.Regions)
		m.listing.SetRegion(listing.Regions[m.regionIdx])
	case "pgdown", "ctrl+f":
		m.listing.NextPage()
	case "pgup", "ctrl+b":
		m.listing.PrevPage()
	case "up":
		m.table.MoveUp(1)
		return m, nil
	case "down":
		m.table.MoveDown(1)
		return m, nil
	case "enter":
		items := m.view.Page.Items
		cursor := m.table.Cursor()
		if cursor < 0 || cursor >= len(items) {
			return m, nil
		}
		return m.openGuide(items[cursor])
	default:
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if after := m.search.Value(); after != before {
			m.listing.SetSearch(after)
		}
		m.applyView(m.listing.View())
		return m, cmd
	}

	m.applyView(m.listing.View())
	return m, nil
}

func (m Model) updateGuide(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.mode = modeList
		m.guideLoading = false
		// Drop any answer still in flight.
		m.guideSeq++
		return m, nil
	case "r":
		return m.openGuide(m.selected)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openGuide switches to the guide view and requests a fresh guide. Guides
// are never cached.
func (m Model) openGuide(country models.Country) (tea.Model, tea.Cmd) {
	m.mode = modeGuide
	m.selected = country
	m.guideSeq++
	m.guideLoading = true
	m.guideErr = nil
	m.viewport.SetContent("")
	return m, fetchGuide(m.guides, m.guideSeq, country.Name)
}

func fetchGuide(guides GuideFetcher, seq int, country string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), guideTimeout)
		defer cancel()

		text, err := guides.CountryGuide(ctx, country)
		if err != nil {
			log.Error().Err(err).Str("country", country).Msg("Failed to load country guide")
		}
		return guideMsg{seq: seq, text: text, err: err}
	}
}

func (m *Model) applyView(v listing.View) {
	m.view = v
	rows := make([]table.Row, 0, len(v.Page.Items))
	for _, c := range v.Page.Items {
		rows = append(rows, table.Row{c.Name, c.Population.String(), c.Region, c.Capital, c.Languages})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

func renderGuide(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Grand Line Guide"))
	b.WriteString("  ")
	b.WriteString(m.styles.Welcome.Render("Welcome, " + m.session.DisplayName()))
	b.WriteString("\n\n")

	if m.mode == modeGuide {
		b.WriteString(m.guideView())
	} else {
		b.WriteString(m.listView())
	}
	return b.String()
}

func (m Model) listView() string {
	var b strings.Builder

	b.WriteString(m.styles.Label.Render("Search: "))
	b.WriteString(m.search.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Label.Render("Region: "))
	regions := make([]string, len(listing.Regions))
	for i, r := range listing.Regions {
		if i == m.regionIdx {
			regions[i] = m.styles.Region.Render("[" + r + "]")
		} else {
			regions[i] = m.styles.Muted.Render(r)
		}
	}
	b.WriteString(strings.Join(regions, " "))
	b.WriteString("\n\n")

	switch {
	case m.view.Loading && len(m.view.Page.Items) == 0:
		b.WriteString(m.spinner.View() + " Loading countries...\n")
	case len(m.view.Page.Items) == 0:
		b.WriteString(m.styles.Muted.Render("No countries found.") + "\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.pagerView())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("type to search • tab region • ↑/↓ select • enter guide • pgup/pgdn page • esc clear/quit"))
	return b.String()
}

func (m Model) pagerView() string {
	page := m.view.Page
	prev := m.styles.Pager.Render("◀ Previous")
	if !page.HasPrev {
		prev = m.styles.Disabled.Render("◀ Previous")
	}
	next := m.styles.Pager.Render("Next ▶")
	if !page.HasNext {
		next = m.styles.Disabled.Render("Next ▶")
	}
	status := fmt.Sprintf("Page %d of %d", max(1, page.Number), max(1, page.TotalPages))
	return lipgloss.JoinHorizontal(lipgloss.Top, prev, "   ", status, "   ", next)
}

func (m Model) guideView() string {
	c := m.selected
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(c.Name))
	b.WriteString("\n")
	details := []struct{ label, value string }{
		{"Capital", c.Capital},
		{"Region", c.Region},
		{"Population", c.Population.String()},
		{"Languages", c.Languages},
		{"Flag", c.Flag},
	}
	for _, d := range details {
		b.WriteString(m.styles.Label.Render(fmt.Sprintf("%-11s", d.label+":")))
		b.WriteString(" " + d.value + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.guideLoading:
		b.WriteString(m.spinner.View() + " Loading guide for " + c.Name + "...\n")
	case m.guideErr != nil:
		b.WriteString(m.styles.Error.Render(guideFailureText) + "\n")
	default:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Footer.Render("esc back • r reload • ↑/↓ scroll"))
	return b.String()
}
