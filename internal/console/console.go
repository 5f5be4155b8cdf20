// Package console renders transcripts for the terminal, coloring questions
// red and answers green.
package console

import (
	"io"

	"github.com/fatih/color"

	"github.com/comigor/gptchat/internal/chat"
)

// Printer writes chat messages to a terminal.
type Printer struct {
	out      io.Writer
	question *color.Color
	answer   *color.Color
}

// NewPrinter creates a Printer. Colors are emitted only when colorize is true.
func NewPrinter(out io.Writer, colorize bool) *Printer {
	p := &Printer{
		out:      out,
		question: color.New(color.FgRed),
		answer:   color.New(color.FgGreen),
	}
	if colorize {
		p.question.EnableColor()
		p.answer.EnableColor()
	} else {
		p.question.DisableColor()
		p.answer.DisableColor()
	}
	return p
}

// Replay prints a stored transcript. System messages are not shown.
func (p *Printer) Replay(msgs []chat.Message) error {
	for _, m := range msgs {
		var err error
		switch m.Role() {
		case chat.RoleUser:
			_, err = p.question.Fprint(p.out, "Question: ", m.Content(), "\n\n")
		case chat.RoleAssistant:
			_, err = p.answer.Fprint(p.out, "Answer: ", m.Content(), "\n\n")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Answer prints a fresh reply.
func (p *Printer) Answer(m chat.Message) error {
	_, err := p.answer.Fprint(p.out, m.Content(), "\n\n")
	return err
}

// Info prints an uncolored line.
func (p *Printer) Info(s string) error {
	_, err := io.WriteString(p.out, s+"\n")
	return err
}
