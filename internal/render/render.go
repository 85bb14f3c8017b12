// Package render prints annotated search results as a terminal table.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/letmevibethatforyou/fusex/internal/fieldpath"
)

const ellipsis = "…"

// Row is one result to print: the highlighted document and its score.
type Row struct {
	Highlighted map[string]any
	Score       *float64
}

// Options controls table output.
type Options struct {
	// Tag is the highlight element used in the documents, e.g. "em".
	Tag string
	// MaxWidth truncates cells wider than this many terminal columns.
	// Zero disables truncation.
	MaxWidth int
	// Color styles highlighted spans. Without it they are bracketed.
	Color bool
}

// Printer renders rows through lipgloss.
type Printer struct {
	opts      Options
	open      string
	close     string
	highlight lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	score     lipgloss.Style
}

func New(opts Options) *Printer {
	if opts.Tag == "" {
		opts.Tag = "em"
	}
	return &Printer{
		opts:      opts,
		open:      "<" + opts.Tag + ">",
		close:     "</" + opts.Tag + ">",
		highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")).Underline(true),
		header:    lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:      lipgloss.NewStyle().Padding(0, 1),
		score:     lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8")),
	}
}

// Table renders rows with one column per field path.
func (p *Printer) Table(columns []string, rows []Row) string {
	withScore := false
	for _, r := range rows {
		if r.Score != nil {
			withScore = true
			break
		}
	}

	headers := make([]string, 0, len(columns)+1)
	if withScore {
		headers = append(headers, "score")
	}
	headers = append(headers, columns...)

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, 0, len(headers))
		if withScore {
			line = append(line, formatScore(r.Score))
		}
		for _, col := range columns {
			line = append(line, p.Cell(r.Highlighted, col))
		}
		cells = append(cells, line)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.header
			case withScore && col == 0:
				return p.score
			default:
				return p.cell
			}
		})
	return t.String()
}

// Print writes the table to w followed by a newline.
func (p *Printer) Print(w io.Writer, columns []string, rows []Row) error {
	_, err := fmt.Fprintln(w, p.Table(columns, rows))
	return err
}

// Cell renders the value at path in doc with highlighted spans styled.
func (p *Printer) Cell(doc map[string]any, path string) string {
	value, ok := fieldpath.Get(doc, path)
	if !ok {
		return ""
	}

	segments := p.segments(text(value))
	if p.opts.MaxWidth > 0 {
		segments = truncate(segments, p.opts.MaxWidth)
	}

	var b strings.Builder
	for _, s := range segments {
		switch {
		case !s.marked:
			b.WriteString(s.text)
		case p.opts.Color:
			b.WriteString(p.highlight.Render(s.text))
		default:
			b.WriteString("[" + s.text + "]")
		}
	}
	return b.String()
}

type segment struct {
	text   string
	marked bool
}

// segments splits s at the highlight tags.
func (p *Printer) segments(s string) []segment {
	var out []segment
	marked := false
	for s != "" {
		tag := p.open
		if marked {
			tag = p.close
		}
		i := strings.Index(s, tag)
		if i < 0 {
			out = append(out, segment{text: s, marked: marked})
			break
		}
		if i > 0 {
			out = append(out, segment{text: s[:i], marked: marked})
		}
		s = s[i+len(tag):]
		marked = !marked
	}
	return out
}

// truncate cuts segments to width display columns, ending with an ellipsis
// when anything was dropped.
func truncate(segments []segment, width int) []segment {
	total := 0
	for _, s := range segments {
		total += runewidth.StringWidth(s.text)
	}
	if total <= width {
		return segments
	}

	budget := width - runewidth.StringWidth(ellipsis)
	out := make([]segment, 0, len(segments))
	for _, s := range segments {
		w := runewidth.StringWidth(s.text)
		if w <= budget {
			out = append(out, s)
			budget -= w
			continue
		}
		if budget > 0 {
			out = append(out, segment{text: runewidth.Truncate(s.text, budget, ""), marked: s.marked})
		}
		break
	}
	return append(out, segment{text: ellipsis})
}

// text renders a document value for display.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = text(elem)
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 3, 64)
}
