package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by all subcommands. Environment and config are
// resolved once in the root's pre-run and handed down as values.
type app struct {
	v          *viper.Viper
	home       string
	configPath string
	cfg        config

	// interactive reports whether the TUI may take over the terminal.
	interactive func(cmd *cobra.Command) bool
}

func newRootCmd(home string) *cobra.Command {
	a := &app{
		v:           viper.New(),
		home:        home,
		interactive: stdoutIsTerminal,
	}
	setDefaults(a.v)

	cmd := &cobra.Command{
		Use:           "floodchat",
		Short:         "Streaming chat client for the flood monitoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.v, a.configPath, a.home)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.floodchat/config.yaml)")
	flags.String("base-url", "", "backend base URL")
	flags.String("token", "", "bearer token for the chat endpoints")
	flags.String("log-file", "", "write diagnostics to this file")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = a.v.BindPFlag("token", flags.Lookup("token"))
	_ = a.v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newAgentCmd(a))
	cmd.AddCommand(newAgentsCmd(a))
	cmd.AddCommand(newProvidersCmd(a))
	return cmd
}

func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
