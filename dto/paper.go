package dto

import (
	"quetzal/model"
	"quetzal/search"
)

// PaperInput is the admin form for creating or editing a paper. The date
// arrives as the three separate fields the form collects.
type PaperInput struct {
	Title      string `json:"title" validate:"required"`
	Day        string `json:"day" validate:"required,numeric"`
	Month      string `json:"month" validate:"required,numeric"`
	Year       string `json:"year" validate:"required,numeric"`
	Std        int    `json:"std" validate:"oneof=11 12"`
	Category   string `json:"category" validate:"required,oneof=jee neet board mhtcet"`
	MhtcetType string `json:"mhtcetType" validate:"omitempty,oneof=pcm pcb"`
	QueLink    string `json:"queLink" validate:"omitempty,url"`
	SolLink    string `json:"solLink" validate:"omitempty,url"`

	// Set when the matching file was (or is about to be) sent to the gateway;
	// the service then points the link at the download route.
	HasQuestionPaper bool `json:"has_question_paper"`
	HasAnswerKey     bool `json:"has_answer_key"`
}

type PapersResponse struct {
	Papers     []model.Paper  `json:"papers"`
	TotalCount int            `json:"total_count"`
	Version    uint64         `json:"version"`
	Query      string         `json:"query,omitempty"`
	Filters    search.Filters `json:"filters"`
}

type SearchRequest struct {
	Query   string          `json:"query"`
	Filters *search.Filters `json:"filters"`
}

type ToggleFilterRequest struct {
	Filters *search.Filters `json:"filters"`
	Key     string          `json:"key" binding:"required"`
}

func NewPapersResponse(papers []model.Paper, version uint64, query string, filters search.Filters) PapersResponse {
	if papers == nil {
		papers = []model.Paper{}
	}
	return PapersResponse{
		Papers:     papers,
		TotalCount: len(papers),
		Version:    version,
		Query:      query,
		Filters:    filters,
	}
}
