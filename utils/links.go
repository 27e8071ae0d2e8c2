package utils

import (
	"net/url"
	"strings"
)

const (
	QuestionPaperName = "question_paper"
	AnswerKeyName     = "ans_key"
	DefaultFileExt    = ".pdf"
)

// LinkBuilder produces public download URLs for stored paper files.
type LinkBuilder struct {
	BaseURL string
}

func NewLinkBuilder(baseURL string) LinkBuilder {
	return LinkBuilder{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (b LinkBuilder) Download(paperID, filename string) string {
	return b.BaseURL + "/download/" + url.PathEscape(paperID) + "/" + url.PathEscape(filename)
}

func (b LinkBuilder) QuestionPaper(paperID string) string {
	return b.Download(paperID, QuestionPaperName+DefaultFileExt)
}

func (b LinkBuilder) AnswerKey(paperID string) string {
	return b.Download(paperID, AnswerKeyName+DefaultFileExt)
}

// IsLegacyUploadLink matches links that point at the static /uploads/ tree
// instead of the forced-download route.
func IsLegacyUploadLink(link string) bool {
	return link != "" && strings.Contains(link, "/uploads/") && !strings.Contains(link, "/download/")
}
