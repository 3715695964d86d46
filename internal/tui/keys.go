package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Back     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Home     key.Binding
	End      key.Binding

	// Collections
	People    key.Binding
	Planets   key.Binding
	Films     key.Binding
	Species   key.Binding
	Vehicles  key.Binding
	Starships key.Binding

	// Actions
	Quit       key.Binding
	Help       key.Binding
	Search     key.Binding
	Filter     key.Binding
	SortName   key.Binding
	SortID     key.Binding
	ToggleView key.Binding
	Favorite   key.Binding
	Favorites  key.Binding
	Recent     key.Binding
	Retry      key.Binding
	Logout     key.Binding

	// Forms
	NextField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "right"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup"),
			key.WithHelp("p", "prev page"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),

		// Collections
		People:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "people")),
		Planets:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "planets")),
		Films:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "films")),
		Species:   key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "species")),
		Vehicles:  key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "vehicles")),
		Starships: key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "starships")),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		SortName: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by name"),
		),
		SortID: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort by id"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "table/grid"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "favorite"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "favorites"),
		),
		Recent: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "recent"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),

		// Forms
		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "up", "down"),
			key.WithHelp("tab", "next field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// collectionKeys maps the number keys to collections
func (k KeyMap) collectionKeys() []key.Binding {
	return []key.Binding{k.People, k.Planets, k.Films, k.Species, k.Vehicles, k.Starships}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
