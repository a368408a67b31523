package tasks

import (
	"regexp"
	"strings"
)

var (
	checkboxLineRe = regexp.MustCompile(`^(\s*[-*]\s)\[(.)\](.*)$`)
	waveHeadingRe  = regexp.MustCompile(`^## Wave (\d+)(?::\s*(.*?))?\s*$`)
	anyWaveRe      = regexp.MustCompile(`^## Wave\b`)
	taskHeadingRe  = regexp.MustCompile(`^### (?:Task )?([^\s:]+):\s*(.*?)\s*$`)
	strictTaskRe   = regexp.MustCompile(`^### Task [^\s:]+:`)
	blockBoundRe   = regexp.MustCompile(`^#{2,3}\s`)
)

// DetectFormat classifies a tasks document. A single "## Wave" or
// "### Task <id>:" heading makes it Enhanced; anything else, including an
// empty document, is Checkbox.
func DetectFormat(contents string) Format {
	for _, line := range splitLines(contents) {
		if anyWaveRe.MatchString(line) || strictTaskRe.MatchString(line) {
			return FormatEnhanced
		}
	}
	return FormatCheckbox
}

// splitLines splits on "\n" and drops a trailing "\r" from each line so
// CRLF files match the same patterns. Callers that rewrite the document
// work on the raw split instead.
func splitLines(contents string) []string {
	lines := strings.Split(contents, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
