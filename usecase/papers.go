package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"quetzal/dto"
	"quetzal/model"
	"quetzal/utils"
)

var ErrInvalidPaper = errors.New("invalid paper")

// PaperService turns admin form input into catalog records and writes them
// through the Catalog.
type PaperService struct {
	Catalog  *Catalog
	Validate *validator.Validate
	Links    utils.LinkBuilder
	NewID    func() (string, error)
}

func NewPaperService(catalog *Catalog, links utils.LinkBuilder) *PaperService {
	return &PaperService{
		Catalog:  catalog,
		Validate: utils.NewValidator(),
		Links:    links,
		NewID:    utils.GeneratePaperID,
	}
}

// Create validates the input, assigns a fresh id and persists the catalog
// with the new paper appended.
func (s *PaperService) Create(ctx context.Context, in dto.PaperInput) (model.Paper, error) {
	if err := s.validateInput(in); err != nil {
		return model.Paper{}, err
	}

	id, err := s.NewID()
	if err != nil {
		return model.Paper{}, fmt.Errorf("failed to generate paper id: %w", err)
	}

	paper := s.buildPaper(id, in, model.Paper{})
	papers := append(s.Catalog.All(), paper)
	if err := s.Catalog.ReplaceAll(ctx, papers); err != nil {
		return model.Paper{}, err
	}
	return paper, nil
}

// Update replaces the paper's fields from the input. Empty link fields keep
// the current links unless a new file was sent.
func (s *PaperService) Update(ctx context.Context, id string, in dto.PaperInput) (model.Paper, error) {
	existing, ok := s.Catalog.Get(id)
	if !ok {
		return model.Paper{}, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	if err := s.validateInput(in); err != nil {
		return model.Paper{}, err
	}

	paper := s.buildPaper(id, in, existing)
	if err := s.Catalog.Update(ctx, id, paper); err != nil {
		return model.Paper{}, err
	}
	return paper, nil
}

func (s *PaperService) Delete(ctx context.Context, id string) error {
	if _, ok := s.Catalog.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	return s.Catalog.Remove(ctx, id)
}

// ReplaceAll validates every record and rejects repeated ids before
// handing the list to the Catalog.
func (s *PaperService) ReplaceAll(ctx context.Context, papers []model.Paper) error {
	seen := make(map[string]struct{}, len(papers))
	for i, p := range papers {
		if err := s.Validate.Struct(p); err != nil {
			return fmt.Errorf("%w: paper %d: %s", ErrInvalidPaper, i, utils.ValidationMessage(err))
		}
		if _, dup := seen[p.PaperID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePaperID, p.PaperID)
		}
		seen[p.PaperID] = struct{}{}
	}
	return s.Catalog.ReplaceAll(ctx, papers)
}

func (s *PaperService) validateInput(in dto.PaperInput) error {
	if err := s.Validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPaper, utils.ValidationMessage(err))
	}
	return nil
}

func (s *PaperService) buildPaper(id string, in dto.PaperInput, existing model.Paper) model.Paper {
	date, _ := utils.ParseDateParts(in.Day, in.Month, in.Year)
	std := model.Standard(in.Std)

	paper := model.Paper{
		PaperID:  id,
		Title:    strings.TrimSpace(in.Title),
		Date:     date,
		Std:      std,
		Standard: model.StandardLabel(std),
		Category: model.Category(in.Category),
		QueLink:  pickLink(in.HasQuestionPaper, s.Links.QuestionPaper(id), in.QueLink, existing.QueLink),
		SolLink:  pickLink(in.HasAnswerKey, s.Links.AnswerKey(id), in.SolLink, existing.SolLink),
	}
	if paper.Category == model.CategoryMHTCET {
		paper.MhtcetType = model.StreamPtr(model.MhtcetType(in.MhtcetType))
	}
	return paper
}

func pickLink(hasFile bool, download, explicit, current string) string {
	switch {
	case hasFile:
		return download
	case explicit != "":
		return explicit
	default:
		return current
	}
}
