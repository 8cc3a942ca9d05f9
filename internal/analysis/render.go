package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rivo/uniseg"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// summaryWidth is the wrap width, in grapheme clusters, of the text report.
const summaryWidth = 72

// Render writes p in the given format.
func Render(w io.Writer, p *Payload, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		_, err := io.WriteString(w, Text(p))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Text is the human-readable report.
func Text(p *Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skin type: %s\n", p.SkinType)
	if p.ScanID != "" {
		fmt.Fprintf(&b, "Scan:      %s\n", p.ScanID)
	}

	if len(p.Scores) > 0 {
		b.WriteString("\nScores\n")
		names := p.ScoreNames()
		width := 0
		for _, n := range names {
			if w := uniseg.StringWidth(n); w > width {
				width = w
			}
		}
		for _, n := range names {
			pad := strings.Repeat(" ", width-uniseg.StringWidth(n))
			fmt.Fprintf(&b, "  %s%s  %3d  %s\n", n, pad, p.Scores[n], bar(p.Scores[n]))
		}
	}

	if len(p.Concerns) > 0 {
		b.WriteString("\nConcerns\n")
		for _, c := range p.Concerns {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}

	b.WriteString("\nSummary\n")
	for _, line := range Wrap(p.Summary, summaryWidth) {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	if len(p.Routine) > 0 {
		b.WriteString("\nRoutine\n")
		for i, prod := range p.Routine {
			name := prod.Name
			if prod.Brand != "" {
				name = prod.Brand + " " + name
			}
			fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, prod.Step, name)
			if prod.Reason != "" {
				fmt.Fprintf(&b, "     %s\n", Truncate(prod.Reason, summaryWidth-5))
			}
		}
	}
	return b.String()
}

func bar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score / 10
	return strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
}

// Truncate shortens s to at most limit grapheme clusters, ending with an
// ellipsis when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if uniseg.GraphemeClusterCount(s) <= limit {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < limit-1 && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	b.WriteString("…")
	return b.String()
}

// Wrap breaks s on spaces into lines of at most width display cells. Words
// wider than width get a line of their own.
func Wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, w := range words {
		ww := uniseg.StringWidth(w)
		if curWidth > 0 && curWidth+1+ww > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(w)
		curWidth += ww
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
