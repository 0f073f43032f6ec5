package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/infrastructure"
)

// Version is stamped at build time.
var Version = "dev"

// Backend bundles the adapters a command talks to.
type Backend struct {
	Fetcher port.ListingFetcher
	Lookups port.LookupFetcher
	Mutator port.EntityMutator
}

// Env is the process environment of the CLI. Tests swap the streams and the backend.
type Env struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	NewBackend func(v *viper.Viper) (Backend, error)
}

func defaultEnv() Env {
	return Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, NewBackend: httpBackend}
}

// httpBackend builds the REST adapters from base_url and timeout.
func httpBackend(v *viper.Viper) (Backend, error) {
	baseURL := strings.TrimSpace(v.GetString("base_url"))
	if baseURL == "" {
		return Backend{}, fmt.Errorf("base_url is not configured (flag --base-url or DASHCTL_BASE_URL)")
	}
	timeout := v.GetDuration("timeout")
	rest := infrastructure.NewRESTClient(baseURL, timeout, nil)
	listing := infrastructure.NewListingHTTPClient(rest, timeout, 0)
	return Backend{Fetcher: listing, Lookups: listing, Mutator: infrastructure.NewMutationHTTPClient(rest, timeout)}, nil
}

// Execute runs dashctl with the process streams.
func Execute() error {
	return NewRootCommand(defaultEnv()).Execute()
}

// NewRootCommand assembles dashctl. Each invocation owns its viper instance.
func NewRootCommand(env Env) *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Operate pharmadash screens from the terminal",
		Long:          "dashctl lists, filters and mutates dashboard screens (products, branches, warehouses, roles, offers)\nthrough the same listing engine the web dashboard uses.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}
	root.SetIn(env.In)
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dashctl.yaml)")
	flags.String("base-url", "", "backend API base URL")
	flags.String("token", "", "bearer token sent to the backend")
	flags.String("screens", "configs/screens.yaml", "screen catalog file")
	flags.Duration("timeout", 10*time.Second, "backend request timeout")
	flags.BoolP("yes", "y", false, "answer yes to every confirmation")
	for key, flag := range map[string]string{"base_url": "base-url", "token": "token", "screens": "screens", "timeout": "timeout", "yes": "yes"} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	app := &app{env: env, v: v}
	root.AddCommand(
		app.screensCommand(),
		app.listCommand(),
		app.filtersCommand(),
		app.saveCommand(),
		app.itemCommand("delete", "Soft delete one row", runDelete),
		app.itemCommand("restore", "Restore one soft-deleted row", runRestore),
		app.itemCommand("force-delete", "Permanently delete one soft-deleted row", runForceDelete),
		app.itemCommand("activate", "Mark one row active", runActivate),
		app.itemCommand("deactivate", "Mark one row inactive", runDeactivate),
		app.bulkCommand("bulk-delete", "Soft delete several rows", false),
		app.bulkCommand("bulk-restore", "Restore several soft-deleted rows", true),
		app.tokenCommand(),
	)
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load()

	v.SetEnvPrefix("DASHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".dashctl")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
