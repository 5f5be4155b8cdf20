package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/console"
)

const promptText = "Ask your question: "

// session drives one interactive conversation: replay, optional question
// file, then the prompt loop.
type session struct {
	conv    *chat.Conversation
	printer *console.Printer
	in      io.Reader
	out     io.Writer
	delay   time.Duration
}

// run returns nil when input ends. Any failed turn ends the session with its
// error; nothing is retried.
func (s *session) run(ctx context.Context, questionFile string) error {
	if err := s.printer.Info("History: " + s.conv.Path()); err != nil {
		return err
	}
	if err := s.printer.Replay(s.conv.Messages()); err != nil {
		return err
	}

	if questionFile != "" {
		prompt, err := openQuestion(questionFile)
		if err != nil {
			return fmt.Errorf("read question file: %w", err)
		}
		if err := s.ask(ctx, prompt); err != nil {
			return err
		}
	}

	r := bufio.NewReader(s.in)
	for {
		if _, err := io.WriteString(s.out, promptText); err != nil {
			return err
		}
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read prompt: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		if prompt := strings.TrimRight(line, "\r\n"); strings.TrimSpace(prompt) != "" {
			if err := s.ask(ctx, prompt); err != nil {
				return err
			}
		}
		if eof {
			_, err := io.WriteString(s.out, "\n")
			return err
		}
	}
}

func (s *session) ask(ctx context.Context, prompt string) error {
	reply, err := s.conv.AskQuestion(ctx, prompt, s.delay)
	if err != nil {
		return err
	}
	return s.printer.Answer(reply)
}

// openQuestion reads the whole question file.
func openQuestion(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
