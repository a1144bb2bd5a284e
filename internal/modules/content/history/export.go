package history

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var statusMarks = map[models.NoteStatus]string{
	models.StatusPending:    "[ ]",
	models.StatusInProgress: "[~]",
	models.StatusCompleted:  "[x]",
}

// Export renders the matching notes as a markdown digest grouped by
// category, or as HTML converted from that digest.
func (s *Service) Export(ctx context.Context, q store.NoteQuery, format string) (string, error) {
	notes, err := s.List(ctx, q)
	if err != nil {
		return "", err
	}
	md := RenderMarkdown(notes)
	switch format {
	case "", FormatMarkdown:
		return md, nil
	case FormatHTML:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(md), &buf); err != nil {
			return "", apperr.Upstream(err)
		}
		return buf.String(), nil
	}
	return "", apperr.Validationf("unsupported format %q", format)
}

// RenderMarkdown groups notes by category in first-seen order and lists them
// newest first within each group.
func RenderMarkdown(notes []models.Note) string {
	var order []string
	groups := make(map[string][]models.Note)
	titles := make(map[string]string)
	for _, n := range notes {
		key := n.Category
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], n)
		if titles[key] == "" && n.CategoryName != "" {
			titles[key] = n.CategoryName
		}
	}

	var b strings.Builder
	b.WriteString("# Work log\n")
	if len(notes) == 0 {
		b.WriteString("\n_No entries._\n")
		return b.String()
	}
	for _, key := range order {
		title := titles[key]
		if title == "" {
			title = key
		}
		if title == "" {
			title = "general"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)

		items := groups[key]
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
		for _, n := range items {
			mark := statusMarks[n.Status]
			if mark == "" {
				mark = "[ ]"
			}
			line := strings.Join(strings.Fields(n.Content), " ")
			fmt.Fprintf(&b, "- %s %s", mark, line)
			if n.Priority == models.PriorityHigh {
				b.WriteString(" **(high)**")
			}
			if len(n.Labels) > 0 {
				fmt.Fprintf(&b, " `%s`", strings.Join(n.Labels, ", "))
			}
			if !n.CreatedAt.IsZero() {
				fmt.Fprintf(&b, " _%s_", n.CreatedAt.Format("2006-01-02 15:04"))
			}
			b.WriteString("\n")
			if n.Summary != "" {
				fmt.Fprintf(&b, "  - %s\n", strings.Join(strings.Fields(n.Summary), " "))
			}
		}
	}
	return b.String()
}
