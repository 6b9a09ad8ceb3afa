package unread

// Category tags one heterogeneous badge source on a role dashboard.
type Category string

const (
	CategoryListings      Category = "listings"
	CategoryInquiries     Category = "inquiries"
	CategoryUsers         Category = "users"
	CategoryNotifications Category = "notifications"
)

// Source is one contributor to the composite badge count. Each dashboard
// registers the variants that apply to its role; the engine sums them
// generically instead of hardcoding per-category logic.
type Source struct {
	// Category identifies the source for per-category watermarks and
	// panel rendering.
	Category Category

	// Label is the human-readable panel line, e.g. "pending listings".
	Label string

	// Target is the dashboard tab (or deep link) selecting the source
	// navigates to.
	Target string

	// Count returns the current number of unseen items for this source.
	Count func() int
}

// Total sums the counts of all sources. Sources with nil Count are
// treated as empty.
func Total(sources []Source) int {
	total := 0
	for _, s := range sources {
		if s.Count != nil {
			total += s.Count()
		}
	}
	return total
}
