// Package cli wires the codefactory commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/config"
	"github.com/dshills/codefactory/internal/logging"
)

// BuildInfo is stamped into the binary at link time
type BuildInfo struct {
	Version   string
	BuildTime string
}

// options are the persistent flags shared by every command
type options struct {
	configFile string
	envFile    string
}

// Execute runs the command tree and returns the process exit code
func Execute(info BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := NewRootCmd(info)
	if err == nil {
		err = root.ExecuteContext(ctx)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewRootCmd wires the cobra tree. It fails only when a command's flags
// cannot be bound to its configuration.
func NewRootCmd(info BuildInfo) (*cobra.Command, error) {
	opts := &options{}

	root := &cobra.Command{
		Use:           "codefactory",
		Short:         "Turn a source repository into a skeleton and retrieval chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", opts.envFile, err)
				}
				return nil
			}
			// A missing .env in the working directory is not an error
			_ = godotenv.Load()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a codefactory config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file instead of ./.env")

	for _, build := range []func(*options) (*cobra.Command, error){
		newAnalyzeCmd,
		newServeCmd,
		newSearchCmd,
	} {
		cmd, err := build(opts)
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}
	root.AddCommand(newVersionCmd(info))
	return root, nil
}

// flagBinders register and bind the flags every analysis command carries
var flagBinders = []func(*cobra.Command, *viper.Viper) error{
	config.BindFlags,
	config.BindLogFlags,
}

// bindCommand gives cmd its own viper instance carrying the analysis and
// logging flags, so commands never share flag bindings.
func bindCommand(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	for _, bind := range flagBinders {
		if err := bind(cmd, v); err != nil {
			return nil, fmt.Errorf("%s: %w", cmd.Name(), err)
		}
	}
	return v, nil
}

// load resolves the configuration and logger for one command run
func (o *options) load(v *viper.Viper) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, o.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
