package marks

import (
	"sort"
	"strings"

	"github.com/ironsheep/omr-tools-mcp/internal/sheet"
)

// ExtractTextualLabels returns the labels whose cell text names the label
// itself: text starting with the label letter, "A", "A." or "(A)", or a
// TRUE/T or FALSE/F synonym for true/false labels. The result is sorted and
// free of duplicates.
//
// This corroborates density-based marks on sheets where students write the
// answer letter instead of filling a box.
func ExtractTextualLabels(q sheet.QuestionMarks) []string {
	seen := make(map[string]bool)
	for _, c := range q.Choices {
		text := strings.ToUpper(strings.TrimSpace(c.Cell.Text))
		if text == "" {
			continue
		}
		if textNamesLabel(text, strings.ToUpper(c.Label)) {
			seen[c.Label] = true
		}
	}

	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func textNamesLabel(text, label string) bool {
	if first, ok := firstLetter(text); ok && first == label {
		return true
	}
	switch text {
	case label, label + ".", "(" + label + ")":
		return true
	case "TRUE", "T":
		return label == "T" || label == "TRUE"
	case "FALSE", "F":
		return label == "F" || label == "FALSE"
	}
	return false
}
