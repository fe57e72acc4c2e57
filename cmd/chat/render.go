package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/widget"
)

var assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38BDF8"))

// printer writes transcript changes to a terminal as they arrive. User turns
// are skipped since the terminal already echoed them. Model turns are printed
// incrementally so a streamed reply appears as it is typed.
type printer struct {
	w io.Writer

	mu      sync.Mutex
	turns   int
	printed int
	open    bool // a model line is being written
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) Render(s widget.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open && p.turns <= len(s.Turns) {
		if text := s.Turns[p.turns-1].Text; len(text) > p.printed {
			fmt.Fprint(p.w, text[p.printed:])
			p.printed = len(text)
		}
	}

	for _, t := range s.Turns[min(p.turns, len(s.Turns)):] {
		if p.open {
			fmt.Fprintln(p.w)
			p.open = false
		}
		if t.Role == models.RoleModel {
			fmt.Fprint(p.w, assistantStyle.Render("Mensor › "), t.Text)
			p.open = true
		}
		p.printed = len(t.Text)
	}
	p.turns = len(s.Turns)

	if p.open && s.State == widget.StateIdle {
		fmt.Fprintln(p.w)
		p.open = false
	}
}
