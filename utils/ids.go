package utils

import (
	"github.com/google/uuid"
)

const PaperIDPrefix = "paper_"

// GeneratePaperID returns "paper_" followed by a version 7 UUID, so ids sort
// by creation time.
func GeneratePaperID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return PaperIDPrefix + id.String(), nil
}

func GenerateRequestID() string {
	return uuid.New().String()
}
