package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/modules/datamanager/infrastructure"
)

type app struct {
	env    Env
	v      *viper.Viper
	reader *bufio.Reader
}

func (a *app) input() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.env.In)
	}
	return a.reader
}

// catalog loads the screen catalog; a missing file yields an empty catalog so ad-hoc
// endpoints still work.
func (a *app) catalog() (*domain.ScreenCatalog, error) {
	path := a.v.GetString("screens")
	catalog, err := infrastructure.LoadScreenCatalog(path, "")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("dashctl screens file missing", slog.String("file", path))
			return domain.NewScreenCatalog(nil), nil
		}
		return nil, err
	}
	return catalog, nil
}

func (a *app) manager(endpoint string) (*usecase.DataManager, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	screen, ok := catalog.Find(endpoint)
	if !ok {
		screen = domain.ScreenConfig{Endpoint: endpoint}
	}
	if screen.Normalize().Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	backend, err := a.env.NewBackend(a.v)
	if err != nil {
		return nil, err
	}
	var confirmer port.Confirmer = &PromptConfirmer{In: a.input(), Out: a.env.Out}
	if a.v.GetBool("yes") {
		confirmer = usecase.AlwaysConfirm{}
	}
	deps := usecase.Dependencies{
		Loader:    usecase.NewListingLoader(backend.Fetcher, nil),
		Lookups:   backend.Lookups,
		Mutator:   backend.Mutator,
		Confirmer: confirmer,
		Notifier:  &ConsoleNotifier{Out: a.env.Out, Title: screen.Normalize().Title},
	}
	session := usecase.Session{Token: a.v.GetString("token"), UserID: "dashctl", SessionID: "dashctl"}
	return usecase.NewDataManager(screen, session, deps), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithCancel(ctx)
}

// outcomeError turns a failed result into the command error; cancellations are not errors.
func outcomeError(result domain.MutationResult) error {
	if result.Outcome == domain.OutcomeFailed {
		return fmt.Errorf("%s %s: %w", result.Kind, result.Endpoint, result.Err)
	}
	return nil
}
