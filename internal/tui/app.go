package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/holocron/internal/app"
	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/tui/styles"
)

// Screen is the top-level view being shown
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenList
	ScreenDetail
	ScreenFavorites
	ScreenRecent
)

// inputMode is what the bottom text input is editing
type inputMode int

const (
	inputNone   inputMode = iota
	inputSearch           // server-side search, applied on enter
	inputFilter           // client-side filter, applied as typed
)

// ChromeHeight is the rows taken by the tab bar, info line and footer
const ChromeHeight = 5

// detailTarget addresses a record for the detail screen
type detailTarget struct {
	Type domain.EntityType
	ID   string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	App *app.App
	svc *browse.Service

	Screen Screen
	Ready  bool
	Width  int
	Height int

	showHelp bool

	// Login form
	username   textinput.Model
	password   textinput.Model
	loginFocus int
	loginErr   string
	loggingIn  bool

	// Collection listing
	request     browse.PageRequest
	page        *browse.PageView
	listLoading bool
	listErr     error
	cursor      int
	listSlot    *browse.Slot

	// Bottom input for search and filter
	input textinput.Model
	mode  inputMode

	// Detail
	detail        *browse.DetailView
	detailTarget  detailTarget
	detailLoading bool
	detailErr     error
	detailCursor  int
	detailSlot    *browse.Slot
	detailReturn  Screen
	history       []detailTarget

	// Favorites and recent screens
	savedCursor int
	savedFilter string

	spinner   spinner.Model
	status    string
	statusErr bool
	statusSeq int
}

// NewModel creates a new application model. A session restored from disk
// skips the login screen.
func NewModel(a *app.App) Model {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "User     "
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Password "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	input := textinput.New()
	input.CharLimit = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		App:        a,
		Screen:     ScreenLogin,
		username:   user,
		password:   pass,
		input:      input,
		spinner:    sp,
		listSlot:   &browse.Slot{},
		detailSlot: &browse.Slot{},
		request:    browse.PageRequest{Type: domain.EntityPeople, Page: 1},
	}

	if svc, err := a.Browse(); err == nil {
		m.svc = svc
		m.Screen = ScreenList
		m.listLoading = true
	}
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textinput.Blink}
	if m.svc != nil {
		cmds = append(cmds, LoadPageCmd(m.svc, m.listSlot.Begin(), m.request))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case PageLoadedMsg:
		if !m.listSlot.Current(msg.Ticket) {
			return m, nil
		}
		view := msg.View
		m.page = &view
		m.listLoading = false
		m.listErr = nil
		m.clampCursor()
		return m, nil

	case PageFailedMsg:
		if !m.listSlot.Current(msg.Ticket) {
			return m, nil
		}
		m.listLoading = false
		m.listErr = msg.Err
		return m, nil

	case DetailLoadedMsg:
		if !m.detailSlot.Current(msg.Ticket) {
			return m, nil
		}
		if m.svc != nil {
			m.svc.MarkViewed(msg.View)
		}
		m.detail = msg.View
		m.detailLoading = false
		m.detailErr = nil
		m.detailCursor = 0
		return m, nil

	case DetailFailedMsg:
		if !m.detailSlot.Current(msg.Ticket) {
			return m, nil
		}
		m.detailLoading = false
		m.detailErr = msg.Err
		return m, nil

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	m.loggingIn = false
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrInvalidCredentials) {
			m.loginErr = "Invalid username or password"
		} else {
			m.loginErr = msg.Err.Error()
		}
		m.password.SetValue("")
		return m, nil
	}

	svc, err := m.App.Browse()
	if err != nil {
		m.loginErr = err.Error()
		return m, nil
	}

	m.svc = svc
	m.loginErr = ""
	m.password.SetValue("")
	m.password.Blur()
	m.username.Blur()
	m.Screen = ScreenList
	m.request = browse.PageRequest{Type: m.request.Type, Page: 1}
	m.cursor = 0

	model, cmd := m.setStatus(fmt.Sprintf("Welcome, %s", msg.Session.DisplayName), false)
	m = model.(Model)
	return m, tea.Batch(cmd, m.startPage(m.request))
}

// === State transitions ===

// startPage issues a page request under a fresh ticket
func (m *Model) startPage(req browse.PageRequest) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	if req.Page < 1 {
		req.Page = 1
	}
	m.request = req
	m.listLoading = true
	m.listErr = nil
	return LoadPageCmd(m.svc, m.listSlot.Begin(), req)
}

// openDetail issues a detail request under a fresh ticket
func (m *Model) openDetail(t domain.EntityType, id string) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	if m.Screen != ScreenDetail {
		m.detailReturn = m.Screen
		m.history = nil
	}
	m.Screen = ScreenDetail
	m.detailTarget = detailTarget{Type: t, ID: id}
	m.detail = nil
	m.detailLoading = true
	m.detailErr = nil
	m.detailCursor = 0
	return LoadDetailCmd(m.svc, m.detailSlot.Begin(), t, id)
}

// switchCollection shows the first page of t
func (m *Model) switchCollection(t domain.EntityType) tea.Cmd {
	m.Screen = ScreenList
	m.cursor = 0
	m.page = nil
	m.mode = inputNone
	m.input.Blur()
	return m.startPage(browse.PageRequest{Type: t, Page: 1})
}

// resort reapplies filter and sort to the loaded page without a request
func (m *Model) resort() {
	if m.page == nil || m.svc == nil {
		return
	}
	view := *m.page
	view.Request.Filter = m.request.Filter
	view = m.svc.Resort(view)
	m.page = &view
	m.clampCursor()
}

func (m *Model) logout() {
	if err := m.App.Logout(); err != nil && !errors.Is(err, domain.ErrNotAuthenticated) {
		m.App.Logger.Error("logout failed", "error", err)
	}
	// Anything still in flight belongs to the old session
	m.listSlot.Invalidate()
	m.detailSlot.Invalidate()

	m.svc = nil
	m.Screen = ScreenLogin
	m.page = nil
	m.detail = nil
	m.history = nil
	m.listErr = nil
	m.detailErr = nil
	m.listLoading = false
	m.detailLoading = false
	m.mode = inputNone
	m.input.Blur()
	m.request = browse.PageRequest{Type: m.request.Type, Page: 1}
	m.username.SetValue("")
	m.password.SetValue("")
	m.loginFocus = 0
	m.username.Focus()
	m.password.Blur()
}

func (m Model) setStatus(msg string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	m.status = msg
	m.statusErr = isErr
	return m, ClearStatusCmd(m.statusSeq)
}

// === Selection helpers ===

func (m *Model) itemCount() int {
	if m.page == nil {
		return 0
	}
	return len(m.page.Items)
}

func (m *Model) clampCursor() {
	n := m.itemCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectedItem() (browse.PageItem, bool) {
	if m.page == nil || m.cursor < 0 || m.cursor >= len(m.page.Items) {
		return browse.PageItem{}, false
	}
	return m.page.Items[m.cursor], true
}

// detailLinks flattens the resolved relation names for cursor movement
func (m *Model) detailLinks() []browse.ResolvedName {
	if m.detail == nil {
		return nil
	}
	var out []browse.ResolvedName
	for _, rel := range m.detail.Relations {
		out = append(out, rel.Names...)
	}
	return out
}

func (m *Model) savedCount() int {
	if m.svc == nil {
		return 0
	}
	switch m.Screen {
	case ScreenFavorites:
		return len(m.svc.Favorites(m.savedFilter))
	case ScreenRecent:
		return len(m.svc.Recent(m.savedFilter))
	}
	return 0
}

// savedTarget returns the record under the cursor on the saved-list screens
func (m *Model) savedTarget() (detailTarget, string, bool) {
	if m.svc == nil {
		return detailTarget{}, "", false
	}
	switch m.Screen {
	case ScreenFavorites:
		favs := m.svc.Favorites(m.savedFilter)
		if m.savedCursor < len(favs) {
			f := favs[m.savedCursor]
			return detailTarget{Type: f.Type, ID: f.ID}, f.DisplayName, true
		}
	case ScreenRecent:
		recent := m.svc.Recent(m.savedFilter)
		if m.savedCursor < len(recent) {
			r := recent[m.savedCursor]
			return detailTarget{Type: r.Type, ID: r.ID}, r.DisplayName, true
		}
	}
	return detailTarget{}, "", false
}

// gridColumns is the number of cells per grid row at the current width
func (m *Model) gridColumns() int {
	cols := (m.Width - 2) / (styles.GridCellWidth + 2)
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (m *Model) listViewMode() domain.ViewMode {
	if m.svc == nil {
		return domain.ViewTable
	}
	return m.svc.Views().Preference(m.request.Type).ViewMode
}

func matches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}
