package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Initializing..."
	}

	if m.Screen == ScreenLogin {
		return m.renderLogin()
	}

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelp()
	case m.Screen == ScreenDetail:
		body = m.renderDetail()
	case m.Screen == ScreenFavorites:
		body = m.renderFavorites()
	case m.Screen == ScreenRecent:
		body = m.renderRecent()
	default:
		body = m.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderFooter(),
	)
}

func (m Model) bodyHeight() int {
	h := m.Height - ChromeHeight
	if h < 3 {
		h = 3
	}
	return h
}

// === Chrome ===

func (m Model) renderTabs() string {
	var tabs []string
	for i, t := range domain.EntityTypes {
		label := fmt.Sprintf("%d %s", i+1, t.Label())
		if m.Screen == ScreenList && t == m.request.Type {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	for _, s := range []struct {
		screen Screen
		label  string
	}{{ScreenFavorites, "F Favorites"}, {ScreenRecent, "R Recent"}} {
		if m.Screen == s.screen {
			tabs = append(tabs, styles.ActiveTabStyle.Render(s.label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(s.label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	if sess, err := m.App.Session.Current(); err == nil {
		who := styles.DimStyle.Render(sess.DisplayName)
		gap := m.Width - lipgloss.Width(bar) - lipgloss.Width(who) - 1
		if gap > 0 {
			bar += strings.Repeat(" ", gap) + who
		}
	}
	return bar
}

func (m Model) renderFooter() string {
	if m.mode != inputNone {
		return m.input.View()
	}
	if m.status != "" {
		if m.statusErr {
			return styles.ErrorStyle.Render(m.status)
		}
		return styles.SuccessStyle.Render(m.status)
	}

	var pairs [][2]string
	switch m.Screen {
	case ScreenDetail:
		pairs = [][2]string{{"j/k", "move"}, {"enter", "open"}, {"*", "favorite"}, {"esc", "back"}, {"?", "help"}}
	case ScreenFavorites, ScreenRecent:
		pairs = [][2]string{{"enter", "open"}, {"*", "favorite"}, {"/", "filter"}, {"esc", "back"}, {"?", "help"}}
	default:
		pairs = [][2]string{{"/", "search"}, {"f", "filter"}, {"s/S", "sort"}, {"v", "view"}, {"*", "favorite"}, {"n/p", "page"}, {"?", "help"}}
	}
	return renderHelpPairs(pairs)
}

func renderHelpPairs(pairs [][2]string) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = styles.HelpKeyStyle.Render(p[0]) + " " + styles.HelpDescStyle.Render(p[1])
	}
	return strings.Join(parts, styles.DimStyle.Render(" • "))
}

// === Login ===

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.AccentStyle.Bold(true).Render("HOLOCRON"))
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Sign in to browse the archives"))
	b.WriteString("\n\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loggingIn:
		b.WriteString(m.spinner.View() + " Signing in...")
	case m.loginErr != "":
		b.WriteString(styles.ErrorStyle.Render(m.loginErr))
	default:
		b.WriteString(renderHelpPairs([][2]string{{"tab", "next field"}, {"enter", "sign in"}, {"esc", "quit"}}))
	}

	box := styles.LoginBoxStyle.Render(b.String())
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}

// === Error panel ===

// errorTitle names the failure kind the way the panel headlines it
func errorTitle(err error) string {
	switch {
	case domain.IsNotFound(err):
		return "Not found"
	case domain.IsTransient(err):
		return "The archives are unreachable"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "Signed out"
	default:
		return "Something went wrong"
	}
}

func (m Model) renderError(err error, canGoBack bool) string {
	var b strings.Builder
	b.WriteString(styles.ErrorStyle.Bold(true).Render(errorTitle(err)))
	b.WriteString("\n\n")
	b.WriteString(styles.SubtitleStyle.Render(styles.Truncate(err.Error(), max(m.Width-10, 20))))
	b.WriteString("\n\n")

	pairs := [][2]string{{"r", "retry"}}
	if canGoBack {
		pairs = append(pairs, [2]string{"esc", "back"})
	}
	b.WriteString(renderHelpPairs(pairs))
	return styles.ErrorPanelStyle.Render(b.String())
}

func (m Model) renderLoading(what string) string {
	return styles.PanelStyle.Render(m.spinner.View() + " Loading " + what + "...")
}

// === Collection listing ===

func (m Model) renderInfoLine() string {
	req := m.request
	var parts []string

	if m.page != nil {
		res := m.page.Result
		switch res.Shape {
		case domain.ShapeSearch:
			parts = append(parts, fmt.Sprintf("Search %q · %d results", req.Search, res.TotalRecords))
		default:
			parts = append(parts, fmt.Sprintf("Page %d/%d · %d records", res.Page, max(res.TotalPages, 1), res.TotalRecords))
		}
		if req.Filter != "" {
			parts = append(parts, fmt.Sprintf("filter %q · %d shown", req.Filter, len(m.page.Items)))
		}
	}
	if m.listLoading {
		parts = append(parts, m.spinner.View()+" loading")
	}
	return styles.SubtitleStyle.Render(strings.Join(parts, " · "))
}

func (m Model) renderList() string {
	title := styles.TitleStyle.Render(m.request.Type.Label())
	info := m.renderInfoLine()

	var content string
	switch {
	case m.listErr != nil:
		content = m.renderError(m.listErr, m.request.Search != "")
	case m.page == nil:
		content = m.renderLoading(strings.ToLower(m.request.Type.Label()))
	case len(m.page.Items) == 0:
		content = styles.PanelStyle.Render(styles.DimStyle.Render("No results"))
	case m.listViewMode() == domain.ViewGrid:
		content = m.renderGrid()
	default:
		content = m.renderTable()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title+"  "+info, "", content)
}

// visibleRange returns the window [start, end) of n rows that keeps cursor on screen
func visibleRange(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}

func (m Model) renderTable() string {
	pref := m.svc.Views().Preference(m.request.Type)
	indicator := func(column string) string {
		if pref.SortKey != column {
			return ""
		}
		return styles.SortIndicator(string(pref.SortDirection))
	}

	nameWidth := max(m.Width-14, 20)
	header := "   " + styles.Pad("ID"+indicator(domain.SortKeyID), 8) + "Name" + indicator(domain.SortKeyName)

	var rows []string
	rows = append(rows, styles.HeaderStyle.Render(header))

	items := m.page.Items
	start, end := visibleRange(m.cursor, len(items), m.bodyHeight()-3)
	for i := start; i < end; i++ {
		it := items[i]
		star := " "
		if m.svc.Views().IsFavorite(m.request.Type, it.ID) {
			star = styles.FavoriteStar
		}
		name := styles.Truncate(it.DisplayName, nameWidth)
		if len(name) == len(it.DisplayName) {
			name = styles.HighlightMatches(name, it.MatchedIndexes)
		}
		line := " " + star + " " + styles.Pad(it.ID, 8) + name
		if i == m.cursor {
			line = styles.SelectedItemStyle.Render(styles.Pad(line, m.Width-1))
		} else {
			line = styles.NormalItemStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderGrid() string {
	cols := m.gridColumns()
	items := m.page.Items

	var rows []string
	for rowStart := 0; rowStart < len(items); rowStart += cols {
		var cells []string
		for i := rowStart; i < rowStart+cols && i < len(items); i++ {
			it := items[i]
			name := styles.Truncate(it.DisplayName, styles.GridCellWidth-4)
			if m.svc.Views().IsFavorite(m.request.Type, it.ID) {
				name = styles.FavoriteStar + " " + styles.Truncate(it.DisplayName, styles.GridCellWidth-6)
			}
			label := name + "\n" + styles.DimStyle.Render("#"+it.ID)
			if i == m.cursor {
				cells = append(cells, styles.GridCellSelectedStyle.Render(label))
			} else {
				cells = append(cells, styles.GridCellStyle.Render(label))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	// Each grid row is four terminal lines tall
	perScreen := max(m.bodyHeight()/4, 1)
	start, end := visibleRange(m.cursor/cols, len(rows), perScreen)
	return strings.Join(rows[start:end], "\n")
}

// === Detail ===

func (m Model) renderDetail() string {
	switch {
	case m.detailErr != nil:
		return m.renderError(m.detailErr, true)
	case m.detail == nil:
		return m.renderLoading(string(m.detailTarget.Type) + "/" + m.detailTarget.ID)
	}

	d := m.detail.Detail
	var b strings.Builder

	title := styles.TitleStyle.Render(d.DisplayName)
	if m.detail.Favorite {
		title = styles.FavoriteStar + " " + title
	}
	b.WriteString(title)
	b.WriteString("  " + styles.DimStyle.Render(d.Type.Label()+" #"+d.ID))
	b.WriteString("\n")
	if d.Description != "" {
		b.WriteString(styles.SubtitleStyle.Render(d.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	keys := d.AttributeKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(domain.HumanizeKey(k)))
	}
	for _, k := range keys {
		label := styles.Pad(domain.HumanizeKey(k), width+2)
		b.WriteString(styles.DimStyle.Render(label) + d.Attributes[k].String() + "\n")
	}

	idx := 0
	for _, rel := range m.detail.Relations {
		b.WriteString("\n" + styles.HeaderStyle.Render(rel.Label) + "\n")
		if len(rel.Names) == 0 {
			b.WriteString(styles.DimStyle.Render("  none") + "\n")
			continue
		}
		for _, n := range rel.Names {
			line := "  " + n.Name
			if idx == m.detailCursor {
				line = styles.SelectedItemStyle.Render("> " + n.Name)
			} else {
				line = styles.LinkStyle.Render(line)
			}
			b.WriteString(line + "\n")
			idx++
		}
	}

	if m.detail.Omitted > 0 {
		b.WriteString("\n" + styles.DimStyle.Render(fmt.Sprintf("%d related records could not be loaded", m.detail.Omitted)) + "\n")
	}
	if m.detailLoading {
		b.WriteString("\n" + m.spinner.View() + " loading...")
	}

	return styles.PanelStyle.Render(clipLines(b.String(), m.bodyHeight()))
}

// clipLines keeps at most n lines of s
func clipLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// === Favorites and recent ===

func (m Model) renderSaved(title string, rows []savedRow, empty string) string {
	header := styles.TitleStyle.Render(title)
	if m.savedFilter != "" {
		header += "  " + styles.SubtitleStyle.Render(fmt.Sprintf("filter %q · %d shown", m.savedFilter, len(rows)))
	}

	if len(rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", styles.PanelStyle.Render(styles.DimStyle.Render(empty)))
	}

	var lines []string
	start, end := visibleRange(m.savedCursor, len(rows), m.bodyHeight()-2)
	for i := start; i < end; i++ {
		r := rows[i]
		star := " "
		if r.favorite {
			star = styles.FavoriteStar
		}
		line := fmt.Sprintf(" %s %s %s", star, styles.Pad(r.name, 32), styles.DimStyle.Render(r.ref+"  "+r.when))
		if i == m.savedCursor {
			line = styles.SelectedItemStyle.Render(styles.Pad(line, m.Width-1))
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(lines, "\n"))
}

type savedRow struct {
	name     string
	ref      string
	when     string
	favorite bool
}

func (m Model) renderFavorites() string {
	var rows []savedRow
	if m.svc != nil {
		for _, f := range m.svc.Favorites(m.savedFilter) {
			rows = append(rows, savedRow{
				name:     styles.Truncate(f.DisplayName, 32),
				ref:      f.Reference().Key(),
				when:     f.SavedAt.Format("2006-01-02 15:04"),
				favorite: true,
			})
		}
	}
	return m.renderSaved("Favorites", rows, "No favorites yet. Press * on any record.")
}

func (m Model) renderRecent() string {
	var rows []savedRow
	if m.svc != nil {
		views := m.svc.Views()
		for _, r := range m.svc.Recent(m.savedFilter) {
			rows = append(rows, savedRow{
				name:     styles.Truncate(r.DisplayName, 32),
				ref:      r.Reference().Key(),
				when:     r.ViewedAt.Format("2006-01-02 15:04"),
				favorite: views.IsFavorite(r.Type, r.ID),
			})
		}
	}
	return m.renderSaved("Recently viewed", rows, "Nothing viewed yet.")
}

// === Help ===

func (m Model) renderHelp() string {
	sections := []struct {
		title string
		pairs [][2]string
	}{
		{"Collections", [][2]string{{"1-6", "switch collection"}, {"F", "favorites"}, {"R", "recently viewed"}}},
		{"Browsing", [][2]string{{"j/k", "move"}, {"h/l", "move (grid)"}, {"enter", "open"}, {"n/p", "next/prev page"}, {"g/G", "top/bottom"}}},
		{"Finding", [][2]string{{"/", "search the archive"}, {"f", "filter this page"}, {"esc", "clear"}}},
		{"Display", [][2]string{{"s", "sort by name"}, {"S", "sort by id"}, {"v", "table/grid"}}},
		{"Other", [][2]string{{"*", "toggle favorite"}, {"r", "retry"}, {"L", "sign out"}, {"q", "quit"}}},
	}

	var b strings.Builder
	for _, s := range sections {
		b.WriteString(styles.HeaderStyle.Render(s.title) + "\n")
		for _, p := range s.pairs {
			b.WriteString("  " + styles.HelpKeyStyle.Render(styles.Pad(p[0], 8)) + styles.HelpDescStyle.Render(p[1]) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.DimStyle.Render("press any key to close"))
	return styles.PanelStyle.Render(b.String())
}
