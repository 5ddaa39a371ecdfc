package listing

import "github.com/isdelr/grandline-guide/internal/models"

// PageSize is the number of countries shown per page.
const PageSize = 5

// Page is one 1-based page of results.
type Page struct {
	Items      []models.Country
	Number     int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	total := (n + size - 1) / size
	if total < 1 {
		return 1
	}
	return total
}

// Paginate slices items into the requested page. Out-of-range page numbers
// are clamped.
func Paginate(items []models.Country, page, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := TotalPages(len(items), size)
	page = clampPage(page, total)

	start := (page - 1) * size
	end := min(start+size, len(items))
	var pageItems []models.Country
	if start < end {
		pageItems = items[start:end]
	}

	return Page{
		Items:      pageItems,
		Number:     page,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

func clampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}
