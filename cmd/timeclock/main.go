// timeclock is a command-line client for the timeclock API. Login stores the
// session in a credentials file; every other command renews it transparently
// when the access token has expired.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"go-timeclock/pkg/client"
)

type globalOptions struct {
	server         string
	credentials    string
	refreshTimeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "error: session expired, run `timeclock login` again")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts globalOptions

	flagSet := pflag.NewFlagSet("timeclock", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.server, "server", envOr("TIMECLOCK_SERVER", "http://localhost:5100"), "API base URL")
	flagSet.StringVar(&opts.credentials, "credentials", defaultCredentialsPath(), "session file")
	flagSet.DurationVar(&opts.refreshTimeout, "refresh-timeout", 10*time.Second, "upper bound for one token rotation")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(out, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printUsage(out, flagSet)
		return nil
	}

	cmd, ok := commands[flagSet.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q", flagSet.Arg(0))
	}

	creds, err := client.LoadFileCredentials(opts.credentials)
	if err != nil {
		return err
	}
	c := client.New(opts.server,
		client.WithCredentials(creds),
		client.WithRefreshTimeout(opts.refreshTimeout),
	)

	return cmd.run(ctx, c, flagSet.Args()[1:], out)
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "usage: timeclock [global flags] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(out, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "global flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}

func envOr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".timeclock-credentials.json"
	}
	return filepath.Join(dir, "timeclock", "credentials.json")
}
