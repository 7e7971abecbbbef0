package tasklist

// Ellipsis marks a collapsed run of pages in the result of Pages.
const Ellipsis = 0

// pageWindow is how many pages are shown on each side of the current one.
const pageWindow = 2

// Pages returns the page numbers to offer for navigation. The first and
// last pages are always present, pages within two of current are listed,
// and each gap is replaced by a single Ellipsis.
func Pages(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total == 1 {
		return []int{1}
	}
	current = max(1, min(current, total))

	items := []int{1}
	if current-pageWindow > 2 {
		items = append(items, Ellipsis)
	}
	for i := max(2, current-pageWindow); i <= min(total-1, current+pageWindow); i++ {
		items = append(items, i)
	}
	if current+pageWindow < total-1 {
		items = append(items, Ellipsis)
	}
	return append(items, total)
}
