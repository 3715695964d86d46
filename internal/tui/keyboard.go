package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
)

// handleKeyMsg routes key presses by screen and input mode
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.Screen == ScreenLogin {
		return m.handleLoginKeys(msg)
	}
	if m.mode != inputNone {
		return m.handleInputKeys(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Global keys
	switch {
	case matches(msg, Keys.Quit):
		return m, tea.Quit
	case matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil
	case matches(msg, Keys.Logout):
		m.logout()
		return m.setStatus("Signed out", false)
	case matches(msg, Keys.Favorites):
		m.Screen = ScreenFavorites
		m.savedCursor = 0
		m.savedFilter = ""
		return m, nil
	case matches(msg, Keys.Recent):
		m.Screen = ScreenRecent
		m.savedCursor = 0
		m.savedFilter = ""
		return m, nil
	}
	for i, b := range Keys.collectionKeys() {
		if matches(msg, b) {
			cmd := m.switchCollection(domain.EntityTypes[i])
			return m, cmd
		}
	}

	switch m.Screen {
	case ScreenList:
		return m.handleListKeys(msg)
	case ScreenDetail:
		return m.handleDetailKeys(msg)
	case ScreenFavorites, ScreenRecent:
		return m.handleSavedKeys(msg)
	}
	return m, nil
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}

	switch {
	case matches(msg, Keys.NextField):
		m.loginFocus = (m.loginFocus + 1) % 2
		var cmd tea.Cmd
		if m.loginFocus == 0 {
			m.password.Blur()
			cmd = m.username.Focus()
		} else {
			m.username.Blur()
			cmd = m.password.Focus()
		}
		return m, cmd

	case matches(msg, Keys.Submit):
		if m.loginFocus == 0 {
			m.loginFocus = 1
			m.username.Blur()
			cmd := m.password.Focus()
			return m, cmd
		}
		user := strings.TrimSpace(m.username.Value())
		if user == "" {
			m.loginErr = "Username is required"
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, LoginCmd(m.App, user, m.password.Value())

	case matches(msg, Keys.Cancel):
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// beginInput opens the bottom input for mode, seeded with value
func (m Model) beginInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	switch mode {
	case inputSearch:
		m.input.Prompt = "search: "
		m.input.Placeholder = "name or title"
	default:
		m.input.Prompt = "filter: "
		m.input.Placeholder = "fuzzy match"
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		value := strings.TrimSpace(m.input.Value())

		if mode == inputSearch {
			m.cursor = 0
			cmd := m.startPage(searchRequest(m.request.Type, value))
			return m, cmd
		}
		m.applyFilter(value)
		return m, nil

	case tea.KeyEsc:
		if m.mode == inputFilter {
			m.applyFilter("")
		}
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputFilter {
		m.applyFilter(m.input.Value())
	}
	return m, cmd
}

// applyFilter narrows the visible items without a request
func (m *Model) applyFilter(value string) {
	switch m.Screen {
	case ScreenFavorites, ScreenRecent:
		m.savedFilter = value
		m.savedCursor = 0
	default:
		m.request.Filter = value
		m.cursor = 0
		m.resort()
	}
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	grid := m.listViewMode() == domain.ViewGrid
	step := 1
	if grid {
		step = m.gridColumns()
	}

	switch {
	case matches(msg, Keys.Up):
		m.cursor -= step
		m.clampCursor()
	case matches(msg, Keys.Down):
		if m.cursor+step < m.itemCount() {
			m.cursor += step
		}
	case grid && matches(msg, Keys.Left):
		m.cursor--
		m.clampCursor()
	case grid && matches(msg, Keys.Right):
		m.cursor++
		m.clampCursor()
	case matches(msg, Keys.Home):
		m.cursor = 0
	case matches(msg, Keys.End):
		m.cursor = m.itemCount() - 1
		m.clampCursor()

	case matches(msg, Keys.Enter):
		if item, ok := m.selectedItem(); ok {
			cmd := m.openDetail(m.request.Type, item.ID)
			return m, cmd
		}

	case matches(msg, Keys.Search):
		return m.beginInput(inputSearch, m.request.Search)
	case matches(msg, Keys.Filter):
		return m.beginInput(inputFilter, m.request.Filter)

	case matches(msg, Keys.SortName), matches(msg, Keys.SortID):
		column := domain.SortKeyName
		if matches(msg, Keys.SortID) {
			column = domain.SortKeyID
		}
		if m.svc != nil {
			m.svc.Views().ToggleSort(m.request.Type, column)
			m.resort()
		}

	case matches(msg, Keys.ToggleView):
		if m.svc != nil {
			m.svc.Views().ToggleViewMode(m.request.Type)
		}

	case matches(msg, Keys.Favorite):
		if item, ok := m.selectedItem(); ok && m.svc != nil {
			return m.toggleFavorite(m.request.Type, item.ID, item.DisplayName)
		}

	case matches(msg, Keys.NextPage):
		if m.page != nil && m.page.HasNext() && !m.listLoading {
			m.cursor = 0
			req := m.request
			req.Page = m.page.Result.Page + 1
			cmd := m.startPage(req)
			return m, cmd
		}
	case matches(msg, Keys.PrevPage):
		if m.page != nil && m.page.HasPrev() && !m.listLoading {
			m.cursor = 0
			req := m.request
			req.Page = m.page.Result.Page - 1
			cmd := m.startPage(req)
			return m, cmd
		}

	case matches(msg, Keys.Retry):
		cmd := m.startPage(m.request)
		return m, cmd

	case matches(msg, Keys.Back):
		switch {
		case m.request.Search != "":
			m.cursor = 0
			cmd := m.startPage(searchRequest(m.request.Type, ""))
			return m, cmd
		case m.request.Filter != "":
			m.applyFilter("")
		}
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	links := m.detailLinks()

	switch {
	case matches(msg, Keys.Up):
		if m.detailCursor > 0 {
			m.detailCursor--
		}
	case matches(msg, Keys.Down):
		if m.detailCursor < len(links)-1 {
			m.detailCursor++
		}

	case matches(msg, Keys.Enter):
		if m.detailCursor < len(links) && !m.detailLoading {
			link := links[m.detailCursor]
			m.history = append(m.history, m.detailTarget)
			cmd := m.openDetail(link.Ref.Type, link.Ref.ID)
			return m, cmd
		}

	case matches(msg, Keys.Favorite):
		if m.detail != nil {
			d := m.detail.Detail
			model, cmd := m.toggleFavorite(d.Type, d.ID, d.DisplayName)
			mm := model.(Model)
			mm.detail.Favorite = mm.svc.Views().IsFavorite(d.Type, d.ID)
			return mm, cmd
		}

	case matches(msg, Keys.Retry):
		if m.detailErr != nil || m.detail == nil {
			t := m.detailTarget
			cmd := m.openDetail(t.Type, t.ID)
			return m, cmd
		}

	case matches(msg, Keys.Back), matches(msg, Keys.Left):
		if n := len(m.history); n > 0 {
			prev := m.history[n-1]
			m.history = m.history[:n-1]
			cmd := m.openDetail(prev.Type, prev.ID)
			return m, cmd
		}
		// Leaving the screen drops whatever is still loading
		m.detailSlot.Invalidate()
		m.detailLoading = false
		m.Screen = m.detailReturn
		if m.Screen == ScreenDetail || m.Screen == ScreenLogin {
			m.Screen = ScreenList
		}
		m.clampCursor()
	}
	return m, nil
}

func (m Model) handleSavedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.savedCount()

	switch {
	case matches(msg, Keys.Up):
		if m.savedCursor > 0 {
			m.savedCursor--
		}
	case matches(msg, Keys.Down):
		if m.savedCursor < n-1 {
			m.savedCursor++
		}
	case matches(msg, Keys.Home):
		m.savedCursor = 0
	case matches(msg, Keys.End):
		m.savedCursor = max(n-1, 0)

	case matches(msg, Keys.Enter):
		if target, _, ok := m.savedTarget(); ok {
			cmd := m.openDetail(target.Type, target.ID)
			return m, cmd
		}

	case matches(msg, Keys.Favorite):
		if target, name, ok := m.savedTarget(); ok {
			model, cmd := m.toggleFavorite(target.Type, target.ID, name)
			mm := model.(Model)
			if c := mm.savedCount(); mm.savedCursor >= c {
				mm.savedCursor = max(c-1, 0)
			}
			return mm, cmd
		}

	case matches(msg, Keys.Search), matches(msg, Keys.Filter):
		return m.beginInput(inputFilter, m.savedFilter)

	case matches(msg, Keys.Back):
		if m.savedFilter != "" {
			m.applyFilter("")
			return m, nil
		}
		m.Screen = ScreenList
	}
	return m, nil
}

func (m Model) toggleFavorite(t domain.EntityType, id, name string) (tea.Model, tea.Cmd) {
	if m.svc.ToggleFavorite(t, id, name) {
		return m.setStatus("★ Added "+name+" to favorites", false)
	}
	return m.setStatus("Removed "+name+" from favorites", false)
}

// searchRequest is the first page of t with search applied; filters reset
func searchRequest(t domain.EntityType, search string) browse.PageRequest {
	return browse.PageRequest{Type: t, Page: 1, Search: search}
}
