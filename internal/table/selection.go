package table

// Selection is a set of row keys. Insertion order is kept so IDs is stable.
type Selection struct {
	keys  map[string]bool
	order []string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{keys: make(map[string]bool)}
}

// Toggle adds key if absent and removes it otherwise.
func (s *Selection) Toggle(key string) {
	if s.keys[key] {
		s.remove(key)
		return
	}
	s.add(key)
}

// ToggleAll clears the selection when every visible row is already
// selected, and otherwise selects exactly the visible rows.
func (s *Selection) ToggleAll(visible []string) {
	all := s.AllSelected(visible)
	s.Clear()
	if all {
		return
	}
	for _, k := range visible {
		s.add(k)
	}
}

// Has reports whether key is selected.
func (s *Selection) Has(key string) bool { return s.keys[key] }

// Len returns the number of selected keys.
func (s *Selection) Len() int { return len(s.order) }

// IDs returns the selected keys in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.order...)
}

// AllSelected reports whether visible is non-empty and fully selected.
func (s *Selection) AllSelected(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	for _, k := range visible {
		if !s.keys[k] {
			return false
		}
	}
	return true
}

// Indeterminate reports whether some, but not all, visible rows are
// selected.
func (s *Selection) Indeterminate(visible []string) bool {
	n := 0
	for _, k := range visible {
		if s.keys[k] {
			n++
		}
	}
	return n > 0 && n < len(visible)
}

// Prune drops keys that are not in existing.
func (s *Selection) Prune(existing []string) {
	keep := make(map[string]bool, len(existing))
	for _, k := range existing {
		keep[k] = true
	}
	for _, k := range s.IDs() {
		if !keep[k] {
			s.remove(k)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.keys = make(map[string]bool)
	s.order = nil
}

func (s *Selection) add(key string) {
	if s.keys == nil {
		s.keys = make(map[string]bool)
	}
	if s.keys[key] {
		return
	}
	s.keys[key] = true
	s.order = append(s.order, key)
}

func (s *Selection) remove(key string) {
	delete(s.keys, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
