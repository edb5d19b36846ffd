package monitor

import "fmt"

// KeyMap defines the keyboard shortcuts displayed in the footer.
type KeyMap struct {
	Open    string
	Filter  string
	Facets  string
	Draft   string
	MyVote  string
	Tab     string
	Sort    string
	Clear   string
	Refresh string
	Quit    string
	Help    string
}

// DefaultKeyMap returns the default shortcut mapping.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open:    "enter",
		Filter:  "/",
		Facets:  "f",
		Draft:   "d",
		MyVote:  "m",
		Tab:     "t",
		Sort:    "s",
		Clear:   "c",
		Refresh: "r",
		Quit:    "q",
		Help:    "?",
	}
}

// HelpLine renders the footer help text.
func (k KeyMap) HelpLine() string {
	return fmt.Sprintf("[%s] open  [%s] title  [%s] facets  [%s] draft  [%s] my vote  [%s] tab  [%s] sort  [%s] clear  [%s] refresh  [%s] quit  [%s] help",
		k.Open, k.Filter, k.Facets, k.Draft, k.MyVote, k.Tab, k.Sort, k.Clear, k.Refresh, k.Quit, k.Help)
}
