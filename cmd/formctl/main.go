// Command formctl fills and checks assessment workbooks from the shell and
// inspects form templates.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/a3tai/assessment-forms/internal/config"
	"github.com/a3tai/assessment-forms/internal/logging"
	"github.com/a3tai/assessment-forms/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formctl",
		Short:         "Score assessment workbooks into filled PDF forms",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	config.RegisterFlags(rootCmd.PersistentFlags(), config.DefaultConfig())
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(instrumentsCmd())
	rootCmd.AddCommand(fieldsCmd())
	rootCmd.AddCommand(workbookTemplateCmd())
	return rootCmd
}

// setup loads configuration from the command's flags and FORMS_*
// variables and builds the service. Logs go to stderr.
func setup(cmd *cobra.Command) (*service.Service, *zap.Logger, error) {
	cfg, err := config.Load(cmd.Flags(), viper.New())
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "formctl", logging.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	svc, err := service.Build(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}
