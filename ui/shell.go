// Package ui implements the interactive query loop in front of an
// orchestrator.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"mcporch/config"
)

// Asker answers one query. *orchestrator.Orchestrator implements it.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Shell reads queries line by line and prints the answers. The literal
// input "quit", in any case, ends the loop.
type Shell struct {
	asker  Asker
	in     io.Reader
	out    io.Writer
	styled bool
	width  int

	title     string
	providers []string
	tools     int
}

type ShellOption func(*Shell)

// WithStyle enables colors and markdown rendering for a terminal of the
// given width.
func WithStyle(width int) ShellOption {
	return func(s *Shell) {
		s.styled = true
		s.width = width
	}
}

// WithBanner prints the connected providers and tool count on start.
func WithBanner(title string, providers []string, tools int) ShellOption {
	return func(s *Shell) {
		s.title = title
		s.providers = providers
		s.tools = tools
	}
}

func NewShell(asker Asker, in io.Reader, out io.Writer, opts ...ShellOption) *Shell {
	s := &Shell{asker: asker, in: in, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops until quit, end of input or ctx is done. A failed query is
// printed and the loop continues. Run returns ctx.Err() when interrupted
// and the read error, if any, otherwise nil.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	s.printBanner()
	fmt.Fprintln(s.out, "\nMCP orchestrator started!")
	fmt.Fprintf(s.out, "\nType your queries or %s to exit.\n", s.style(DimStyle.Render, "'quit'"))

	for {
		fmt.Fprint(s.out, "\n"+s.style(PromptStyle.Render, "Query: "))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			return <-readErr
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}

		answer, err := s.asker.Ask(ctx, query)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Shell] query failed: %v", err)
			}
			fmt.Fprintf(s.out, "\n%s\n", s.style(ErrorStyle.Render, "Error: "+err.Error()))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		fmt.Fprintf(s.out, "\n%s\n", s.render(answer))
	}
}

func (s *Shell) style(render func(...string) string, text string) string {
	if !s.styled {
		return text
	}
	return render(text)
}

func (s *Shell) render(answer string) string {
	if !s.styled {
		return answer
	}
	return renderAnswer(answer, s.width)
}

func (s *Shell) printBanner() {
	if s.title == "" {
		return
	}

	var sb strings.Builder
	sb.WriteString(s.style(TitleStyle.Render, s.title))
	sb.WriteString("\n")
	if len(s.providers) > 0 {
		sb.WriteString(fmt.Sprintf("Providers: %s\n", strings.Join(s.providers, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Tools: %d", s.tools))

	if !s.styled {
		fmt.Fprintln(s.out, sb.String())
		return
	}

	fmt.Fprintln(s.out, BannerStyle.Render(sb.String()))
	fmt.Fprintln(s.out, DimStyle.Render(centerText(FormatFooter("quit", "Exit"), s.width)))
}
