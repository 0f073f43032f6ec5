package cli

import (
	"context"
	"io"

	"github.com/fatih/color"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

// ConsoleNotifier prints mutation results as coloured one-line toasts.
type ConsoleNotifier struct {
	Out   io.Writer
	Title string
}

func (n *ConsoleNotifier) Notify(_ context.Context, result domain.MutationResult) {
	notification := domain.NotificationFromResult(n.Title, result)
	var c *color.Color
	switch notification.Level {
	case domain.LevelSuccess:
		c = color.New(color.FgGreen)
	case domain.LevelError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgYellow)
	}
	c.Fprintf(n.Out, "[%s] %s: %s\n", notification.Level, notification.Title, notification.Message)
}

var _ port.Notifier = (*ConsoleNotifier)(nil)
