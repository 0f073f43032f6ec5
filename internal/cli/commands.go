package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/auth"
)

func (a *app) screensCommand() *cobra.Command {
	var role []string
	cmd := &cobra.Command{
		Use:   "screens",
		Short: "List the screens of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			var screens []domain.ScreenConfig
			if len(role) > 0 {
				screens = catalog.ForRoles(role)
			} else {
				for _, endpoint := range catalog.Endpoints() {
					screen, _ := catalog.Find(endpoint)
					screens = append(screens, screen)
				}
			}
			out := cmd.OutOrStdout()
			for _, screen := range screens {
				line := fmt.Sprintf("%-12s %s", screen.Endpoint, screen.Title)
				if len(screen.Roles) > 0 {
					line += color.New(color.Faint).Sprintf("  [%s]", strings.Join(screen.Roles, ","))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&role, "role", nil, "only screens visible to these roles")
	return cmd
}

type listOptions struct {
	search    string
	filters   map[string]string
	sort      string
	direction string
	page      int
	deleted   bool
	json      bool
}

func (a *app) listCommand() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list <endpoint>",
		Short: "Show one page of a screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.manager(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			manager.SetShowingDeleted(opts.deleted)
			if opts.search != "" {
				manager.SetSearch(opts.search)
			}
			keys := make([]string, 0, len(opts.filters))
			for key := range opts.filters {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				manager.SetFilter(key, opts.filters[key])
			}
			if opts.sort != "" {
				manager.SetSort(opts.sort, domain.SortDirection(opts.direction))
			}
			if opts.page > 1 {
				manager.SetPage(opts.page)
			}
			if err := manager.Open(ctx); err != nil {
				return err
			}

			view := manager.View()
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			renderView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.search, "search", "s", "", "free text search")
	flags.StringToStringVarP(&opts.filters, "filter", "f", nil, "filter as key=value (repeatable)")
	flags.StringVar(&opts.sort, "sort", "", "column to sort by")
	flags.StringVar(&opts.direction, "dir", "asc", "sort direction (asc or desc)")
	flags.IntVarP(&opts.page, "page", "p", 1, "page number")
	flags.BoolVar(&opts.deleted, "deleted", false, "show the deleted bucket")
	flags.BoolVar(&opts.json, "json", false, "print the view as JSON")
	return cmd
}

func (a *app) filtersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "filters <endpoint>",
		Short: "Show the filters a screen offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.manager(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := manager.Open(ctx); err != nil {
				return err
			}
			renderFilters(cmd.OutOrStdout(), manager.FilterFields())
			return nil
		},
	}
}

func (a *app) saveCommand() *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "save <endpoint>",
		Short: "Create a row, or update it when the payload carries an id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := readEntity(a.input(), data, file)
			if err != nil {
				return err
			}
			manager, err := a.manager(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return outcomeError(manager.Save(ctx, entity))
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object to save")
	cmd.Flags().StringVar(&file, "file", "", "read the JSON object from a file (- for stdin)")
	return cmd
}

func readEntity(stdin io.Reader, data, file string) (domain.Entity, error) {
	var raw []byte
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("use either --data or --file")
	case data != "":
		raw = []byte(data)
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("nothing to save: pass --data or --file")
	}
	entity := domain.Entity{}
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	return entity, nil
}

type itemRunner func(ctx context.Context, manager *usecase.DataManager, id int64, label string) domain.MutationResult

func runDelete(ctx context.Context, manager *usecase.DataManager, id int64, label string) domain.MutationResult {
	return manager.Delete(ctx, id, label)
}

func runRestore(ctx context.Context, manager *usecase.DataManager, id int64, label string) domain.MutationResult {
	manager.SetShowingDeleted(true)
	return manager.Restore(ctx, id, label)
}

func runForceDelete(ctx context.Context, manager *usecase.DataManager, id int64, label string) domain.MutationResult {
	manager.SetShowingDeleted(true)
	return manager.ForceDelete(ctx, id, label)
}

func runActivate(ctx context.Context, manager *usecase.DataManager, id int64, _ string) domain.MutationResult {
	return manager.ToggleActive(ctx, id, true)
}

func runDeactivate(ctx context.Context, manager *usecase.DataManager, id int64, _ string) domain.MutationResult {
	return manager.ToggleActive(ctx, id, false)
}

func (a *app) itemCommand(name, short string, run itemRunner) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   name + " <endpoint> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			manager, err := a.manager(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return outcomeError(run(ctx, manager, id, label))
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "name shown in the confirmation prompt")
	return cmd
}

// bulkCommand loads the relevant bucket first so fail-batch screens can check the ids.
func (a *app) bulkCommand(name, short string, restore bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <endpoint> <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args)-1)
			for _, raw := range args[1:] {
				id, err := parseID(raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			manager, err := a.manager(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			manager.SetShowingDeleted(restore)
			if err := manager.Open(ctx); err != nil {
				return err
			}
			for _, id := range ids {
				manager.ToggleOne(id)
			}
			if restore {
				return outcomeError(manager.BulkRestore(ctx))
			}
			return outcomeError(manager.BulkDelete(ctx))
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func (a *app) tokenCommand() *cobra.Command {
	var (
		secret    string
		subject   string
		sessionID string
		roles     []string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 session token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = a.v.GetString("jwt_secret")
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			token, err := auth.IssueHS256(secret, subject, sessionID, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&secret, "secret", "", "HMAC secret (default DASHCTL_JWT_SECRET)")
	flags.StringVar(&subject, "subject", "dashctl", "token subject (user id)")
	flags.StringVar(&sessionID, "session", "", "session id (random when empty)")
	flags.StringSliceVar(&roles, "role", nil, "roles carried by the token")
	flags.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
