package display

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.Confirmer = (*LineConfirmer)(nil)
	_ domain.Confirmer = (*PromptConfirmer)(nil)
)

// LineConfirmer asks inside the watch UI and takes the next typed line as
// the answer. It must be called from the goroutine that otherwise reads the
// input channel, so the answer is not consumed as a command.
type LineConfirmer struct {
	input  <-chan string
	parser domain.IntentParser
	ask    func(question string)
}

// NewLineConfirmer creates a confirmer reading answers from input.
func NewLineConfirmer(input <-chan string, parser domain.IntentParser, ask func(question string)) *LineConfirmer {
	return &LineConfirmer{input: input, parser: parser, ask: ask}
}

// Confirm prints the question and waits for one line. Only an explicit yes
// confirms.
func (c *LineConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	c.ask(question + " [y/N]")

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-c.input:
		if !ok {
			return false, io.EOF
		}
		intent, err := c.parser.Parse(ctx, line)
		if err != nil {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		return intent.Type == domain.IntentConfirm, nil
	}
}

// PromptConfirmer asks on the terminal with promptui. Used by the one-shot
// commands.
type PromptConfirmer struct {
	assumeYes bool
	stdin     io.ReadCloser
	stdout    io.WriteCloser
}

// NewPromptConfirmer creates a terminal confirmer. assumeYes answers every
// question with yes without asking. Nil streams use the process terminal.
func NewPromptConfirmer(assumeYes bool, stdin io.ReadCloser, stdout io.WriteCloser) *PromptConfirmer {
	return &PromptConfirmer{assumeYes: assumeYes, stdin: stdin, stdout: stdout}
}

// Confirm shows a y/N prompt. Ctrl-C maps to ErrCancelled.
func (p *PromptConfirmer) Confirm(_ context.Context, question string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
		Stdin:     p.stdin,
		Stdout:    p.stdout,
	}
	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, domain.ErrCancelled
	default:
		return false, fmt.Errorf("prompt: %w", err)
	}
}
