package table

// State is the table's transient UI state: search text, sort and selection.
type State struct {
	Search    string
	SortField string
	Reversed  bool
	Selection *Selection
	Sorter    Sorter
}

// NewState creates an unsorted, unfiltered state with an empty selection.
func NewState(sorter Sorter) *State {
	return &State{Selection: NewSelection(), Sorter: sorter}
}

// SetSorting sorts by field. Choosing the current field again flips the
// direction; a new field starts ascending.
func (s *State) SetSorting(field string) {
	if field == s.SortField {
		s.Reversed = !s.Reversed
		return
	}
	s.SortField = field
	s.Reversed = false
}

// Visible returns rows as the table shows them.
func Visible[R Record](s *State, rows []R) []R {
	return SortWith(s.Sorter, rows, s.SortField, s.Reversed, s.Search)
}

// Keys returns the keys of rows in order.
func Keys[R Record](rows []R) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key()
	}
	return keys
}
