package web

import (
	"net/http"
	"sort"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/palette"
)

// categoryCount is one bar of the dashboard's category breakdown.
type categoryCount struct {
	Category string
	Count    int
	Color    string
	Percent  int
}

// countCategories counts items per category, largest first.
func countCategories(items []inventory.ViewItem) []categoryCount {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Category]++
	}
	out := make([]categoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, categoryCount{
			Category: cat,
			Count:    n,
			Color:    palette.CategoryColor(cat).Hex,
			Percent:  n * 100 / len(items),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// recentItems returns the n most recently created items.
func recentItems(items []inventory.ViewItem, n int) []inventory.ViewItem {
	sorted := append([]inventory.ViewItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request, sess *session) {
	st := s.loadInventory(r.Context(), sess)
	if client.IsUnauthorized(st.Err) {
		s.endSession(w, r, sess)
		return
	}

	unowned := 0
	for _, it := range st.Items {
		if it.Owner == inventory.UnknownOwner {
			unowned++
		}
	}

	s.templates.Render(w, "dashboard.html", &struct {
		PageData
		Total      int
		Users      int
		Unowned    int
		Categories []categoryCount
		Recent     []inventory.ViewItem
		LoadError  string
	}{
		PageData:   page(sess, "Dashboard", "dashboard"),
		Total:      len(st.Items),
		Users:      len(st.Users),
		Unowned:    unowned,
		Categories: countCategories(st.Items),
		Recent:     recentItems(st.Items, 5),
		LoadError:  st.Error,
	})
}
