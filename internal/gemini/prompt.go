package gemini

import (
	"fmt"
	"path"
	"strings"

	"github.com/oukeidos/skinscan/internal/analysis"
)

// SystemInstruction describes the expected JSON document.
var SystemInstruction = strings.Join([]string{
	"You are a skincare assistant reviewing face photos taken in a phone app.",
	"Assess the visible skin only. Do not identify the person.",
	"Answer with a single JSON object and nothing else, with these fields:",
	`  "skin_type": one of oily, dry, combination, normal, sensitive`,
	`  "scores": an object mapping each of ` + strings.Join(analysis.StandardScores, ", ") + ` to an integer 0-100`,
	`  "concerns": a short list of visible concerns`,
	`  "summary": two or three plain sentences`,
	`  "routine": an ordered list of {"step","name","brand","reason"} products`,
}, "\n")

// UserPrompt lists the photos in the order they are attached.
func UserPrompt(sessionID string, imagePaths []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s. %d photo(s) follow in this order:\n", sessionID, len(imagePaths))
	for i, p := range imagePaths {
		fmt.Fprintf(&b, "%d. %s\n", i+1, viewName(p))
	}
	return b.String()
}

// viewName recovers the capture slot from an object name like "front-1700000000.jpg".
func viewName(objectPath string) string {
	base := path.Base(objectPath)
	if slot, _, ok := strings.Cut(base, "-"); ok {
		return slot + " view"
	}
	return base
}
