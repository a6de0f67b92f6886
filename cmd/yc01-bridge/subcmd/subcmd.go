// Sub-commands of yc01-bridge application.
// Every module gets global state in context and config already read from file.
package subcmd

import (
	"context"
	"log"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/temoto/yc01-bridge/internal/state"
)

type Mod struct {
	Name  string
	Short string
	// config file errors are ignored, Main gets whatever was read
	WithoutConfig bool
	Main          func(context.Context, *state.Config) error
}

// Command wraps module into cobra command, load prepares context and config.
func Command(m Mod, load func() (context.Context, *state.Config, error)) *cobra.Command {
	if m.Name == "" || m.Main == nil {
		panic("code error subcmd.Command Name='' or Main=nil")
	}
	return &cobra.Command{
		Use:           m.Name,
		Short:         m.Short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, config, err := load()
			if err != nil && !m.WithoutConfig {
				return errors.Annotate(err, "config")
			}
			return m.Main(ctx, config)
		},
	}
}

// SdNotify returns false when not running under systemd.
func SdNotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
