package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser key bindings.
type KeyMap struct {
	Dashboard   key.Binding
	Products    key.Binding
	SwitchTab   key.Binding
	Search      key.Binding
	ClearSearch key.Binding
	Submit      key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	PageSize    key.Binding
	Reload      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Dashboard:   newBinding([]string{"1"}, "dashboard", "1"),
		Products:    newBinding([]string{"2"}, "products", "2"),
		SwitchTab:   newBinding([]string{"tab"}, "switch screen", "tab"),
		Search:      newBinding([]string{"/"}, "search", "/"),
		ClearSearch: newBinding([]string{"esc"}, "clear search", "esc"),
		Submit:      newBinding([]string{"enter"}, "done", "enter"),
		NextPage:    newBinding([]string{"n", "right"}, "next page", "n/→"),
		PrevPage:    newBinding([]string{"p", "left"}, "prev page", "p/←"),
		FirstPage:   newBinding([]string{"home"}, "first page", "home"),
		LastPage:    newBinding([]string{"end"}, "last page", "end"),
		PageSize:    newBinding([]string{"s"}, "page size", "s"),
		Reload:      newBinding([]string{"r"}, "reload", "r"),
		Quit:        newBinding([]string{"q", "ctrl+c"}, "quit", "q"),
	}
}

func newBinding(keys []string, help, display string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(display, help),
	)
}

// productsHelp lists the bindings shown under the products table.
func (k KeyMap) productsHelp() []key.Binding {
	return []key.Binding{k.Search, k.ClearSearch, k.PrevPage, k.NextPage, k.FirstPage, k.LastPage, k.PageSize, k.Reload, k.Quit}
}

func (k KeyMap) dashboardHelp() []key.Binding {
	return []key.Binding{k.Products, k.SwitchTab, k.Quit}
}
