package ui

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

var (
	mdLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	traceRegex  = regexp.MustCompile(`^\[[^\]]+\] Calling tool \S+ with args `)
)

// preprocessLinks strips markdown link syntax [text](url) down to url so
// the terminal can detect and open it.
func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

// renderMarkdown renders content for a terminal of the given width.
// Autolink is disabled to keep plain URLs as plain text.
func renderMarkdown(content string, width int) string {
	content = preprocessLinks(content)

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width, 0)
	doc := p.Parse([]byte(content))

	return strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")
}

// isTrace reports whether line is a tool call trace line.
func isTrace(line string) bool {
	return traceRegex.MatchString(line)
}

// renderAnswer styles an answer line by line. Trace and error lines are
// styled as-is; runs of other lines are rendered as markdown when width is
// positive, or left untouched otherwise.
func renderAnswer(answer string, width int) string {
	if width <= 0 {
		return answer
	}

	var out []string
	var prose []string
	flush := func() {
		if len(prose) == 0 {
			return
		}
		out = append(out, renderMarkdown(strings.Join(prose, "\n"), width))
		prose = nil
	}

	for _, line := range strings.Split(answer, "\n") {
		switch {
		case isTrace(line):
			flush()
			out = append(out, TraceStyle.Render(line))
		case strings.HasPrefix(line, "Error: "):
			flush()
			out = append(out, ErrorStyle.Render(line))
		default:
			prose = append(prose, line)
		}
	}
	flush()

	return strings.Join(out, "\n")
}
