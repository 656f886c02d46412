package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

const (
	defaultWidth  = 120
	defaultHeight = 24
	// Rows reserved for the title, status line and help.
	chromeHeight = 6
)

// Options configures the review screen.
type Options struct {
	Theme   themes.Theme
	Width   int
	Height  int
	ShowAll bool // start with every row instead of only unclassified ones
}

// Model is the review screen. It never modifies the rows it is given.
type Model struct {
	theme   themes.Theme
	keymap  KeyMap
	help    help.Model
	table   table.Model
	rows    []model.EnrichedTransaction
	visible []model.EnrichedTransaction
	width   int
	height  int
	showAll bool
	detail  bool
}

// New creates a review model over rows.
func New(rows []model.EnrichedTransaction, opts Options) Model {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}

	keymap := DefaultKeyMap()
	t := table.New(
		table.WithFocused(true),
		table.WithKeyMap(keymap.tableKeyMap()),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(opts.Theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = opts.Theme.Selected
	t.SetStyles(s)

	m := Model{
		theme:   opts.Theme,
		keymap:  keymap,
		help:    help.New(),
		table:   t,
		rows:    rows,
		showAll: opts.ShowAll,
	}
	m.resize(opts.Width, opts.Height)
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.detail && (msg.Type == tea.KeyEsc || key.Matches(msg, m.keymap.Detail)) {
			m.detail = false
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keymap.ToggleAll):
			m.showAll = !m.showAll
			m.detail = false
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keymap.Detail):
			if len(m.visible) > 0 {
				m.detail = true
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the screen.
func (m Model) View() string {
	sections := []string{m.theme.Title.Render(m.title())}

	if len(m.visible) == 0 {
		sections = append(sections, m.theme.StatusSuccess.Render("Every transaction has a category."))
	} else {
		sections = append(sections, m.table.View())
		if m.detail {
			if row, ok := m.Selected(); ok {
				sections = append(sections, m.theme.RoundedBox.Render(detailView(row)))
			}
		}
	}

	sections = append(sections, "", m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Selected returns the row under the cursor.
func (m Model) Selected() (model.EnrichedTransaction, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.EnrichedTransaction{}, false
	}
	return m.visible[i], true
}

// Visible returns the number of rows currently listed.
func (m Model) Visible() int {
	return len(m.visible)
}

func (m Model) title() string {
	unclassified := countUnclassified(m.rows)
	if m.showAll {
		return fmt.Sprintf("All transactions (%d, %d unclassified)", len(m.rows), unclassified)
	}
	return fmt.Sprintf("Unclassified transactions (%d of %d)", unclassified, len(m.rows))
}

func (m *Model) refresh() {
	m.visible = nil
	for _, row := range m.rows {
		if m.showAll || row.Category == model.CategoryUndefined {
			m.visible = append(m.visible, row)
		}
	}

	tableRows := make([]table.Row, len(m.visible))
	for i, row := range m.visible {
		tableRows[i] = table.Row{
			row.Raw.TransactionDate.Format("2006-01-02"),
			row.Amount.StringFixed(2),
			string(row.Type),
			row.Raw.Description,
			row.Raw.Source,
			row.Category,
		}
	}
	m.table.SetRows(tableRows)
	m.table.SetCursor(0)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	fixed := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Amount", Width: 11},
		{Title: "Type", Width: 21},
	}
	source := table.Column{Title: "Source", Width: 16}
	category := table.Column{Title: "Category", Width: 16}

	used := source.Width + category.Width
	for _, c := range fixed {
		used += c.Width
	}
	// Each column has one cell of padding on either side.
	desc := max(width-used-2*(len(fixed)+3), 16)

	columns := append(fixed, table.Column{Title: "Description", Width: desc}, source, category)
	m.table.SetColumns(columns)
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-chromeHeight, 3))
}

func detailView(row model.EnrichedTransaction) string {
	var b strings.Builder
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-14s %s\n", name+":", value)
		}
	}

	field("Date", row.Raw.TransactionDate.Format("2006-01-02"))
	if row.Raw.PostDate != nil {
		field("Posted", row.Raw.PostDate.Format("2006-01-02"))
	}
	field("Description", row.Raw.Description)
	field("Amount", row.Amount.StringFixed(2))
	field("Source amount", row.Raw.Amount.StringFixed(2))
	field("Account", fmt.Sprintf("%s (%s)", row.Raw.Source, row.Raw.AccountType))
	field("Bank category", row.Raw.CategorySource)
	field("Details", row.Raw.AdditionalDetails)
	field("Type", string(row.Type))
	field("Spending", string(row.SpendingType))
	field("Merchant", row.Merchant)
	if row.IsRecurring {
		field("Recurring", string(row.RecurringFrequency))
	}
	if row.RefundStatus != model.RefundNone {
		field("Refund", fmt.Sprintf("%s %s", row.RefundStatus, row.RefundMatchID))
	}
	field("ID", row.Raw.ID)
	return strings.TrimRight(b.String(), "\n")
}

func countUnclassified(rows []model.EnrichedTransaction) int {
	n := 0
	for _, row := range rows {
		if row.Category == model.CategoryUndefined {
			n++
		}
	}
	return n
}
