package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"quetzal/dto"
	"quetzal/model"
)

const (
	MinPaperYear      = 1900
	MaxPaperYear      = 2100
	MinPasswordLength = 6
)

var (
	ErrPasswordTooShort  = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordIsDefault = errors.New("new password must differ from the username")
)

// NewValidator returns a validator with the catalog's cross-field rules
// registered on top of the tag rules.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	RegisterCustomValidators(v)
	return v
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterStructValidation(paperInputStructLevel, dto.PaperInput{})
	v.RegisterStructValidation(paperStructLevel, model.Paper{})
}

// ValidDate reports whether day-month-year names a real calendar day within
// the accepted year range. Leap years are handled by the round trip through time.Date.
func ValidDate(day, month, year int) bool {
	if day < 1 || day > 31 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if year < MinPaperYear || year > MaxPaperYear {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month && t.Year() == year
}

// ParseDateParts converts the form's string components and validates them.
func ParseDateParts(day, month, year string) (model.PaperDate, bool) {
	d, err1 := strconv.Atoi(strings.TrimSpace(day))
	m, err2 := strconv.Atoi(strings.TrimSpace(month))
	y, err3 := strconv.Atoi(strings.TrimSpace(year))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if !ValidDate(d, m, y) {
		return "", false
	}
	return model.FormatDate(d, m, y), true
}

func paperInputStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(dto.PaperInput)

	if in.Day != "" && in.Month != "" && in.Year != "" {
		if _, ok := ParseDateParts(in.Day, in.Month, in.Year); !ok {
			sl.ReportError(in.Day, "date", "Date", "paperdate", "")
		}
	}
	checkStream(sl, model.Category(in.Category), in.MhtcetType)
}

func paperStructLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.Paper)

	if strings.TrimSpace(p.PaperID) == "" {
		sl.ReportError(p.PaperID, "paperID", "PaperID", "required", "")
	}
	if strings.TrimSpace(p.Title) == "" {
		sl.ReportError(p.Title, "title", "Title", "required", "")
	}
	day, month, year, err := p.Date.Parts()
	if err != nil || !ValidDate(day, month, year) {
		sl.ReportError(p.Date, "date", "Date", "paperdate", "")
	}
	if p.Std != 11 && p.Std != 12 {
		sl.ReportError(p.Std, "std", "Std", "oneof", "11 12")
	}
	switch p.Category {
	case model.CategoryJEE, model.CategoryNEET, model.CategoryBoard, model.CategoryMHTCET:
	default:
		sl.ReportError(p.Category, "category", "Category", "oneof", "jee neet board mhtcet")
	}
	checkStream(sl, p.Category, string(p.Stream()))
}

// checkStream enforces that a stream is present exactly for mhtcet papers.
func checkStream(sl validator.StructLevel, category model.Category, stream string) {
	if category == model.CategoryMHTCET {
		if stream != string(model.MhtcetPCM) && stream != string(model.MhtcetPCB) {
			sl.ReportError(stream, "mhtcetType", "MhtcetType", "required_if", "category mhtcet")
		}
		return
	}
	if stream != "" {
		sl.ReportError(stream, "mhtcetType", "MhtcetType", "excluded_unless", "category mhtcet")
	}
}

// ValidationMessage flattens validator errors into one user-facing sentence.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "paperdate":
			msgs = append(msgs, "please enter a valid date")
		case "required_if":
			msgs = append(msgs, "mhtcetType must be pcm or pcb for mhtcet papers")
		case "excluded_unless":
			msgs = append(msgs, "mhtcetType is only allowed for mhtcet papers")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ValidateNewPassword applies the password-change rules.
func ValidateNewPassword(username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password == username {
		return ErrPasswordIsDefault
	}
	return nil
}
