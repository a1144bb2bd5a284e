// Package classify derives labels and a subTag for a note from its text and
// the user's keyword configuration. It is pure: no I/O, no randomness.
package classify

import (
	"strings"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/modules/processing/dedup"
)

// Built-in label vocabulary.
const (
	LabelIssue   = "issue"
	LabelIdea    = "idea"
	LabelUpdate  = "update"
	LabelGeneral = "general"
)

// Vocabulary lists the built-in labels in display order.
var Vocabulary = []string{LabelIssue, LabelIdea, LabelUpdate, LabelGeneral}

var heuristics = []struct {
	label string
	words []string
}{
	{LabelIssue, []string{"문제", "에러", "버그"}},
	{LabelIdea, []string{"아이디어", "제안"}},
}

// Input is everything the classifier looks at. Keywords is the ordered
// keyword list of Category, taken from a settings snapshot.
type Input struct {
	Content        string
	Summary        string
	Category       string
	ExistingLabels []string
	Keywords       []string
}

// Result is the derived classification.
type Result struct {
	Labels models.StringArray
	SubTag *string
}

// Classify returns existing labels ∪ keyword matches ∪ heuristic matches, and
// the first configured keyword found in the content. Labels are scanned over
// content plus summary; the subTag only over content.
func Classify(in Input) Result {
	labelText := Normalize(in.Content + " " + in.Summary)
	current := models.StringArray(in.ExistingLabels).Union()

	var found []string
	for _, k := range in.Keywords {
		kw := strings.ToLower(strings.TrimSpace(k))
		if kw == "" || current.Contains(k) {
			continue
		}
		if strings.Contains(labelText, kw) {
			found = append(found, k)
		}
	}
	current = current.Union(found...)

	for _, h := range heuristics {
		if current.Contains(h.label) {
			continue
		}
		for _, w := range h.words {
			if strings.Contains(labelText, w) {
				current = current.Union(h.label)
				break
			}
		}
	}

	return Result{Labels: current, SubTag: SubTag(in.Content, in.Keywords)}
}

// SubTag returns the first keyword, in configured order, contained in the
// normalized content, or nil.
func SubTag(content string, keywords []string) *string {
	text := Normalize(content)
	if text == "" {
		return nil
	}
	for _, k := range keywords {
		kw := strings.ToLower(strings.TrimSpace(k))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			tag := k
			return &tag
		}
	}
	return nil
}

// Normalize is the text normalization shared with the duplicate guard.
func Normalize(s string) string {
	return dedup.Normalize(s)
}

// ForSettings builds an Input for category using the keyword list held in
// settings.
func ForSettings(settings *models.UserSettings, category, content, summary string, existing []string) Input {
	return Input{
		Content:        content,
		Summary:        summary,
		Category:       category,
		ExistingLabels: existing,
		Keywords:       settings.Keywords(category),
	}
}
