package handlers

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// parsePagination maps page/limit query values (0 when absent or invalid)
// onto a 1-based page and a bounded page size.
func (a *App) parsePagination(page int, limit int) (int, int) {
	var parsedPage, parsedLimit int

	if page < 1 {
		parsedPage = 1
	} else {
		parsedPage = page
	}

	if limit < 1 {
		parsedLimit = defaultPageLimit
	} else if limit > maxPageLimit {
		parsedLimit = maxPageLimit
	} else {
		parsedLimit = limit
	}

	return parsedPage, parsedLimit
}

func (a *App) calcMaxPage(count int64, limit int) int64 {
	pageMax := count / int64(limit)
	if (count % int64(limit)) != 0 {
		pageMax++
	}
	return pageMax
}
