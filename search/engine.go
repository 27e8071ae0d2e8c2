package search

import (
	"strings"

	"quetzal/model"
)

// Match returns the papers that contain query and pass filters, in catalog order.
func Match(papers []model.Paper, query string, filters Filters) []model.Paper {
	results := make([]model.Paper, 0, len(papers))
	for _, p := range papers {
		if matchesQuery(p, query) && matchesFilters(p, filters) {
			results = append(results, p)
		}
	}
	return results
}

// Title and id compare case-insensitively; the date compares against the raw
// query.
func matchesQuery(p model.Paper, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	lowered := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Title), lowered) ||
		strings.Contains(string(p.Date), query) ||
		strings.Contains(strings.ToLower(p.PaperID), lowered)
}

func matchesFilters(p model.Paper, f Filters) bool {
	if f.All {
		return true
	}

	switch {
	case f.JEE && p.Category == model.CategoryJEE:
		return true
	case f.NEET && p.Category == model.CategoryNEET:
		return true
	case f.Board && p.Category == model.CategoryBoard:
		return true
	case f.Std11 && p.Std == 11:
		return true
	case f.Std12 && p.Std == 12:
		return true
	}

	if p.Category != model.CategoryMHTCET {
		return false
	}
	if f.MHTCET.All {
		return true
	}
	stream := streamOf(p)
	return (f.MHTCET.PCM && stream == model.MhtcetPCM) ||
		(f.MHTCET.PCB && stream == model.MhtcetPCB)
}

// streamOf falls back to the title for rows written before mhtcetType existed.
func streamOf(p model.Paper) model.MhtcetType {
	if s := p.Stream(); s != "" {
		return s
	}
	title := strings.ToLower(p.Title)
	switch {
	case strings.Contains(title, "pcm"):
		return model.MhtcetPCM
	case strings.Contains(title, "pcb"):
		return model.MhtcetPCB
	}
	return ""
}
