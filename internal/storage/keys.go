package storage

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9.\-_]`)

// SanitizeFilename replaces anything outside [a-zA-Z0-9._-] with "_".
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// AttachmentKey builds a collision resistant key for a submission upload.
func AttachmentKey(submissionID, questionID, filename string) string {
	return fmt.Sprintf("profile-submissions/%s/%s/%s-%s", submissionID, questionID, uuid.NewString(), SanitizeFilename(filename))
}

// LogoKey is where a normalized solution logo is stored.
func LogoKey(solutionID string) string {
	return fmt.Sprintf("solutions/%s/logo-%s.png", solutionID, uuid.NewString())
}
