package search

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFilter = errors.New("unknown filter")

// Filter keys accepted by Toggle.
const (
	KeyAll       = "all"
	KeyJEE       = "jee"
	KeyNEET      = "neet"
	KeyBoard     = "board"
	KeyStd11     = "std11"
	KeyStd12     = "std12"
	KeyMHTCETAll = "mhtcet.all"
	KeyMHTCETPCM = "mhtcet.pcm"
	KeyMHTCETPCB = "mhtcet.pcb"
)

type MHTCETFilters struct {
	All bool `json:"all"`
	PCM bool `json:"pcm"`
	PCB bool `json:"pcb"`
}

// Filters is the category selection applied after the text query.
type Filters struct {
	All    bool          `json:"all"`
	JEE    bool          `json:"jee"`
	NEET   bool          `json:"neet"`
	Board  bool          `json:"board"`
	Std11  bool          `json:"std11"`
	Std12  bool          `json:"std12"`
	MHTCET MHTCETFilters `json:"mhtcet"`
}

func DefaultFilters() Filters {
	return Filters{All: true}
}

// AnySpecific reports whether any filter other than All is set.
func (f Filters) AnySpecific() bool {
	return f.JEE || f.NEET || f.Board || f.Std11 || f.Std12 ||
		f.MHTCET.All || f.MHTCET.PCM || f.MHTCET.PCB
}

// Normalize re-enables All when nothing specific is selected, so there is no
// empty selection state.
func (f Filters) Normalize() Filters {
	if !f.AnySpecific() {
		f.All = true
	}
	return f
}

// Toggle flips one filter and applies the selection rules: All clears every
// specific filter when switched on, std11/std12 exclude each other, a mhtcet
// sub-filter clears its siblings, and a specific toggle clears All.
func Toggle(f Filters, key string) (Filters, error) {
	key = strings.ToLower(strings.TrimSpace(key))

	if key == KeyAll {
		if !f.All {
			return DefaultFilters(), nil
		}
		f.All = false
		return f.Normalize(), nil
	}

	next := f
	next.All = false

	switch key {
	case KeyJEE:
		next.JEE = !f.JEE
	case KeyNEET:
		next.NEET = !f.NEET
	case KeyBoard:
		next.Board = !f.Board
	case KeyStd11:
		next.Std11 = !f.Std11
		next.Std12 = false
	case KeyStd12:
		next.Std12 = !f.Std12
		next.Std11 = false
	case KeyMHTCETAll:
		next.MHTCET = MHTCETFilters{All: !f.MHTCET.All}
	case KeyMHTCETPCM:
		next.MHTCET = MHTCETFilters{PCM: !f.MHTCET.PCM}
	case KeyMHTCETPCB:
		next.MHTCET = MHTCETFilters{PCB: !f.MHTCET.PCB}
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}

	return next.Normalize(), nil
}

// ParseFilters builds a selection by toggling keys in order from the default.
func ParseFilters(keys []string) (Filters, error) {
	f := DefaultFilters()
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		var err error
		if f, err = Toggle(f, key); err != nil {
			return DefaultFilters(), err
		}
	}
	return f, nil
}
