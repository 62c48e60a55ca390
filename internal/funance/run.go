// Package funance wires the forecast engine to the command line and to the
// chart data server.
package funance

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/SimonSchneider/goslu/config"
	"github.com/SimonSchneider/goslu/date"
	"github.com/google/subcommands"
)

type Config struct {
	Addr  string
	Watch bool
	DbURL string
	Spec  string
	Lots  string
}

func parseConfig(fs *flag.FlagSet, args []string, getEnv func(string) string) (cfg Config, err error) {
	cfg = Config{Addr: ":8080", DbURL: "file:funance.db"}
	err = config.ParseInto(&cfg, fs, args, getEnv)
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DbURL == "" {
		cfg.DbURL = "file:funance.db"
	}
	return cfg, err
}

// app is the state shared by every sub command of one run.
type app struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getwd  func() (string, error)
	today  func() date.Date
	log    *log.Logger

	err error
}

// fail records err as the outcome of the run.
func (a *app) fail(err error) subcommands.ExitStatus {
	a.err = err
	return subcommands.ExitFailure
}

func Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, getEnv func(string) string, getwd func() (string, error)) error {
	return run(ctx, args, stdin, stdout, stderr, getEnv, getwd, date.Today)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, getEnv func(string) string, getwd func() (string, error), today func() date.Date) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := parseConfig(fs, args[1:], getEnv)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if !fs.Parsed() {
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("failed to parse flags: %w", err)
		}
	}
	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getwd:  getwd,
		today:  today,
		log:    log.New(stdout, "", log.LstdFlags|log.Lshortfile),
	}
	commander := subcommands.NewCommander(fs, args[0])
	commander.Output = stdout
	commander.Error = stderr
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&projectCmd{app: a}, "forecast")
	commander.Register(&serveCmd{app: a}, "forecast")
	commander.Register(&exportLotsCmd{app: a}, "brokerage")

	status := commander.Execute(ctx)
	if a.err != nil {
		return a.err
	}
	if status != subcommands.ExitSuccess {
		return fmt.Errorf("%s exited with status %d", args[0], status)
	}
	return nil
}
