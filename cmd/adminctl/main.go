// Command adminctl is a terminal console for the admin API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"market-admin/internal/logger"
	"market-admin/pkg/adminclient"
)

const defaultAPIURL = "http://localhost:8080"

// app is built once in the root command's PersistentPreRunE and shared by
// every subcommand.
type app struct {
	client *adminclient.Client
	store  *adminclient.FileStore
	gate   *adminclient.Gate
	log    *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage the shop from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(v)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.gate != nil {
				a.gate.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", defaultAPIURL, "admin API base URL (env API_URL)")
	flags.String("store", "", "session file (default <config dir>/market-admin/session.json)")
	flags.String("log-level", "warn", "log level")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout")
	flags.Bool("strict", false, "ignore the cached session when the server cannot confirm it")

	v.BindPFlag("api_url", flags.Lookup("api-url"))
	v.BindPFlag("store", flags.Lookup("store"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("timeout", flags.Lookup("timeout"))
	v.BindPFlag("strict", flags.Lookup("strict"))
	v.BindEnv("api_url", "API_URL")
	v.BindEnv("log_level", "LOG_LEVEL")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newSubmissionsCmd(a),
		newStatsCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) init(v *viper.Viper) error {
	_ = godotenv.Load(".env.local", ".env")

	a.log = logger.New(v.GetString("log_level"), "text")
	a.log.SetOutput(os.Stderr)

	path := v.GetString("store")
	if path == "" {
		var err error
		if path, err = adminclient.DefaultStorePath(); err != nil {
			return fmt.Errorf("locate session file: %w", err)
		}
	}
	a.store = adminclient.NewFileStore(path)

	httpClient := &http.Client{Timeout: v.GetDuration("timeout")}
	a.client = adminclient.New(v.GetString("api_url"), httpClient, a.log)
	a.gate = adminclient.NewGate(a.client, a.store, adminclient.Options{
		DisableCachedFallback: v.GetBool("strict"),
		Logger:                a.log,
	})
	return nil
}

// requireAdmin runs the gate check and turns a failure into the message
// the console shows before sending the user to login.
func (a *app) requireAdmin(ctx context.Context) error {
	err := a.gate.Check(ctx)
	if err == nil || a.gate.IsAuthenticated() {
		return nil
	}
	return fmt.Errorf("not signed in as an admin; run `adminctl login`")
}
