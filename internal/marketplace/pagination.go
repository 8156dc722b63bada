package marketplace

// Step is how many page links are shown on each side of the current page.
const Step = 2

// Window is the page navigation shown under a result page. Pages and
// Current are zero based.
type Window struct {
	Pages   []int
	Current int
	CanPrev bool
	CanNext bool
}

// PageWindow computes the navigation for page out of totalPages. It returns
// false when there is nothing to navigate, that is fewer than two pages.
func PageWindow(page, totalPages int) (Window, bool) {
	if totalPages < 2 {
		return Window{}, false
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	current := page + 1
	last := totalPages
	if current+Step < totalPages {
		last = current + Step
	}
	first := 1
	if current-Step > 1 {
		first = current - Step
	}

	w := Window{
		Current: page,
		CanPrev: page > 0,
		CanNext: current < totalPages,
	}
	for p := first - 1; p < last; p++ {
		w.Pages = append(w.Pages, p)
	}
	return w, true
}
