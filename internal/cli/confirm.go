package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

// PromptConfirmer asks on the terminal before destructive mutations.
type PromptConfirmer struct {
	In  *bufio.Reader
	Out io.Writer
}

func (p *PromptConfirmer) Confirm(ctx context.Context, prompt domain.ConfirmationPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.Out, "%s", prompt.Message)
	fmt.Fprint(p.Out, " (y/N): ")
	response, err := p.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}

var _ port.Confirmer = (*PromptConfirmer)(nil)
