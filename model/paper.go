package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Category string

const (
	CategoryJEE    Category = "jee"
	CategoryNEET   Category = "neet"
	CategoryBoard  Category = "board"
	CategoryMHTCET Category = "mhtcet"
)

type MhtcetType string

const (
	MhtcetPCM MhtcetType = "pcm"
	MhtcetPCB MhtcetType = "pcb"
)

// Paper is one catalog entry. JSON names match what is stored in the catalog row.
type Paper struct {
	PaperID    string      `json:"paperID" bson:"paperID"`
	Title      string      `json:"title" bson:"title"`
	Date       PaperDate   `json:"date" bson:"date"`
	Std        Standard    `json:"std" bson:"std"`
	Standard   string      `json:"standard,omitempty" bson:"standard,omitempty"`
	Category   Category    `json:"category" bson:"category"`
	MhtcetType *MhtcetType `json:"mhtcetType" bson:"mhtcetType"`
	QueLink    string      `json:"queLink" bson:"queLink"`
	SolLink    string      `json:"solLink" bson:"solLink"`
}

// Stream returns the mhtcet stream or "" when none is set.
func (p Paper) Stream() MhtcetType {
	if p.MhtcetType == nil {
		return ""
	}
	return *p.MhtcetType
}

func StreamPtr(t MhtcetType) *MhtcetType {
	if t == "" {
		return nil
	}
	return &t
}

// StandardLabel renders 11 as "11th" and 12 as "12th".
func StandardLabel(std Standard) string {
	return fmt.Sprintf("%dth", int(std))
}

// PaperDate is a "DD-MM-YYYY" string. Older rows stored {day, month, year}
// objects; those are normalised on decode.
type PaperDate string

func FormatDate(day, month, year int) PaperDate {
	return PaperDate(fmt.Sprintf("%02d-%02d-%d", day, month, year))
}

func (d *PaperDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = PaperDate(s)
		return nil
	}

	var parts struct {
		Day   json.RawMessage `json:"day"`
		Month json.RawMessage `json:"month"`
		Year  json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("paper date: %w", err)
	}
	nums := make([]int, 0, 3)
	for _, raw := range []json.RawMessage{parts.Day, parts.Month, parts.Year} {
		text, err := scalarText(raw)
		if err != nil {
			return fmt.Errorf("paper date: %w", err)
		}
		if text == "" {
			*d = ""
			return nil
		}
		n, err := wholeNumber(text)
		if err != nil {
			return fmt.Errorf("paper date: non-numeric component in %s", data)
		}
		nums = append(nums, n)
	}
	*d = FormatDate(nums[0], nums[1], nums[2])
	return nil
}

// scalarText returns a JSON string or number as plain text. Missing and null
// values come back empty.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] != '"' {
		return string(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// wholeNumber parses "05", "5" and "5.0" alike.
func wholeNumber(text string) (int, error) {
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", text)
	}
	return int(f), nil
}

// Parts splits the date into its day, month and year components.
func (d PaperDate) Parts() (day, month, year int, err error) {
	fields := strings.Split(string(d), "-")
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q is not DD-MM-YYYY", string(d))
	}
	nums := make([]int, 3)
	for i, f := range fields {
		n, convErr := strconv.Atoi(f)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("date %q is not DD-MM-YYYY", string(d))
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// Standard is the academic grade, 11 or 12. Decoding accepts 11, 11.0, "11" and "11th".
type Standard int

func (s *Standard) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "th")
	}
	n, err := wholeNumber(raw)
	if err != nil {
		return fmt.Errorf("standard: %q is not a number", raw)
	}
	*s = Standard(n)
	return nil
}
