// Package tui implements the interactive product browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Screen identifies the visible screen.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenProducts
)

func (s Screen) String() string {
	switch s {
	case ScreenProducts:
		return "Products"
	default:
		return "Dashboard"
	}
}

// StateFactory creates a fresh catalog state each time the products screen opens.
type StateFactory func() *catalog.State

// loadFinishedMsg reports the end of a Load on state.
type loadFinishedMsg struct {
	state *catalog.State
	err   error
}

const searchPlaceholder = "Search by title, brand, or category..."

// Model is the root bubbletea model.
type Model struct {
	ctx      context.Context
	newState StateFactory
	logger   zerolog.Logger

	screen  Screen
	state   *catalog.State
	pending bool

	search    textinput.Model
	searching bool
	table     table.Model
	help      help.Model
	keys      KeyMap

	width  int
	height int
}

// New creates the browser model. It starts on the dashboard.
func New(ctx context.Context, newState StateFactory) Model {
	if newState == nil {
		panic("state factory cannot be nil")
	}

	search := textinput.New()
	search.Placeholder = searchPlaceholder
	search.Prompt = "Search: "
	search.CharLimit = 100

	t := table.New(
		table.WithColumns(columnsFor(0)),
		table.WithFocused(true),
		table.WithHeight(int(catalog.DefaultPageSize)),
	)
	t.SetStyles(tableStyles())

	return Model{
		ctx:      ctx,
		newState: newState,
		logger:   log.With().Str("component", "tui").Logger(),
		screen:   ScreenDashboard,
		search:   search,
		table:    t,
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
}

// Screen returns the visible screen.
func (m Model) Screen() Screen {
	return m.screen
}

// State returns the mounted catalog state, or nil on the dashboard.
func (m Model) State() *catalog.State {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case loadFinishedMsg:
		if msg.state != m.state {
			m.logger.Debug().Err(msg.err).Msg("Ignoring load result for unmounted state")
			return m, nil
		}
		m.pending = false
		if msg.err != nil && !errors.Is(msg.err, catalog.ErrStaleLoad) {
			m.logger.Warn().Err(msg.err).Msg("Catalog load failed")
		}
		m.syncTable()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.unmount()
		return m, tea.Quit
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Dashboard):
		return m.switchTo(ScreenDashboard)
	case key.Matches(msg, m.keys.Products):
		return m.switchTo(ScreenProducts)
	case key.Matches(msg, m.keys.SwitchTab):
		if m.screen == ScreenDashboard {
			return m.switchTo(ScreenProducts)
		}
		return m.switchTo(ScreenDashboard)
	}

	if m.screen != ScreenProducts || m.state == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.ClearSearch):
		m.search.SetValue("")
		m.state.SetSearchTerm("")
	case key.Matches(msg, m.keys.NextPage):
		m.state.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		m.state.PrevPage()
	case key.Matches(msg, m.keys.FirstPage):
		m.state.FirstPage()
	case key.Matches(msg, m.keys.LastPage):
		m.state.LastPage()
	case key.Matches(msg, m.keys.PageSize):
		next := m.state.View().PageSize.Next()
		if err := m.state.SetPageSize(next); err != nil {
			m.logger.Error().Err(err).Msg("Failed to change page size")
		}
		m.resize()
	case key.Matches(msg, m.keys.Reload):
		m.pending = true
		m.syncTable()
		return m, loadCmd(m.ctx, m.state)
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	m.syncTable()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.searching = false
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.ClearSearch):
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.state.SetSearchTerm("")
		m.syncTable()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.state.SetSearchTerm(after)
		m.syncTable()
	}
	return m, cmd
}

// switchTo changes screen. Entering products mounts and loads a new state;
// leaving it closes the old one.
func (m Model) switchTo(screen Screen) (tea.Model, tea.Cmd) {
	if screen == m.screen {
		return m, nil
	}
	m.screen = screen

	if screen != ScreenProducts {
		m.unmount()
		return m, nil
	}

	m.state = m.newState()
	m.pending = true
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
	m.resize()
	m.syncTable()
	m.logger.Debug().Msg("Products screen mounted")
	return m, loadCmd(m.ctx, m.state)
}

func (m *Model) unmount() {
	if m.state == nil {
		return
	}
	m.state.Close()
	m.state = nil
	m.pending = false
	m.searching = false
	m.search.Blur()
	m.table.SetRows(nil)
	m.logger.Debug().Msg("Products screen unmounted")
}

func loadCmd(ctx context.Context, state *catalog.State) tea.Cmd {
	return func() tea.Msg {
		return loadFinishedMsg{state: state, err: state.Load(ctx)}
	}
}

func (m *Model) resize() {
	m.table.SetColumns(columnsFor(m.width))

	rows := int(catalog.DefaultPageSize)
	if m.state != nil {
		rows = int(m.state.View().PageSize)
	}
	if m.height > 0 {
		// navbar, search, page size, status, pagination, help
		rows = min(rows, max(3, m.height-12))
	}
	m.table.SetHeight(rows)
	m.help.Width = m.width
}

func (m *Model) syncTable() {
	if m.state == nil {
		m.table.SetRows(nil)
		return
	}

	view := m.state.View()
	rows := make([]table.Row, 0, len(view.Products))
	for _, p := range view.Products {
		rows = append(rows, table.Row{
			strconv.Itoa(p.ID),
			p.Title,
			p.Brand,
			p.Category,
			p.DisplayPrice(),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

func columnsFor(width int) []table.Column {
	if width <= 0 {
		width = 100
	}
	available := max(50, width-12)
	return []table.Column{
		{Title: "ID", Width: max(4, available/12)},
		{Title: "Title", Width: max(12, available*3/12)},
		{Title: "Brand", Width: max(8, available*2/12)},
		{Title: "Category", Width: max(8, available*3/12)},
		{Title: "Price", Width: max(8, available*3/12)},
	}
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{m.renderNavbar()}
	switch m.screen {
	case ScreenProducts:
		sections = append(sections, m.renderProducts(), m.help.ShortHelpView(m.keys.productsHelp()))
	default:
		sections = append(sections, m.renderDashboard(), m.help.ShortHelpView(m.keys.dashboardHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderNavbar() string {
	items := make([]string, 0, 2)
	for i, screen := range []Screen{ScreenDashboard, ScreenProducts} {
		label := fmt.Sprintf("%d %s", i+1, screen)
		if screen == m.screen {
			items = append(items, navActiveStyle.Render(label))
			continue
		}
		items = append(items, navItemStyle.Render(label))
	}
	return lipgloss.NewStyle().MarginBottom(1).Render(lipgloss.JoinHorizontal(lipgloss.Top, items...))
}

func (m Model) renderDashboard() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Welcome to the Dashboard"),
		subtleStyle.Render("Press 2 to open Products"),
		"",
	)
}

func (m Model) renderProducts() string {
	if m.state == nil {
		return ""
	}
	view := m.state.View()

	sections := []string{
		m.search.View(),
		subtleStyle.Render(fmt.Sprintf("Show: %d per page (s to change)", view.PageSize)),
	}

	if view.Error != "" {
		sections = append(sections, errorStyle.Render(view.Error))
	}

	switch {
	case view.Loading || m.pending:
		sections = append(sections, statusStyle.Render("Loading..."))
	case len(view.Products) == 0:
		sections = append(sections, statusStyle.Render("No products found"))
	default:
		sections = append(sections, m.table.View())
	}

	sections = append(sections, paginationStyle.Render(renderPagination(view)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderPagination(view catalog.View) string {
	parts := []string{fmt.Sprintf("Page %d of %d", view.PageNumber, view.TotalPages)}
	if view.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("%d of %d products match", view.Matches, view.CatalogSize))
	} else {
		parts = append(parts, fmt.Sprintf("%d products", view.CatalogSize))
	}
	return strings.Join(parts, " • ")
}

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, newState StateFactory, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(New(ctx, newState), opts...)

	final, err := program.Run()
	if m, ok := final.(Model); ok {
		m.unmount()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
