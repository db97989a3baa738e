// Command rekrybot folds the recruitment mails of one IMAP folder into a
// single digest draft and archives the originals.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"rekrybot/internal/config"
	"rekrybot/internal/logger"
)

func main() {
	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "run":
		err = runMain(ctx, args)
	case "history":
		err = historyMain(ctx, args)
	case "check-config":
		err = checkConfigMain(args)
	case "set-password":
		err = setPasswordMain(args)
	case "delete-password":
		err = deletePasswordMain(args)
	case "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "rekrybot %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: rekrybot [command] [options]

Commands:
  run              build the digest, append it to drafts and archive the sources (default)
  history          list recorded runs
  check-config     validate the config file
  set-password     store the IMAP password in the OS keychain (read from stdin)
  delete-password  remove the IMAP password from the OS keychain

Examples:
  rekrybot run --dry-run
  rekrybot run --mbox recruitment.mbox --out digest.mbox
  rekrybot run --every 24h
  rekrybot history --limit 5`)
}

// common holds the flags every command shares.
type common struct {
	configPath string
	debug      bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default: user config dir)/rekrybot/config.yml")
	fs.BoolVar(&c.debug, "debug", false, "verbose console logging")
}

// load bootstraps and loads the config. Validation warnings are logged; the
// caller decides whether validation errors are fatal.
func (c *common) load(log *zap.Logger) (config.Config, string, config.Validation, error) {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, "", config.Validation{}, err
		}
		path = p
	}

	created, err := config.EnsureUserConfig(path)
	if err != nil {
		return config.Config{}, path, config.Validation{}, fmt.Errorf("config bootstrap: %w", err)
	}
	if created {
		log.Warn("wrote default config; set imap.host, imap.username, digest.from and digest.to before the first run",
			zap.String("path", path))
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, config.Validation{}, fmt.Errorf("config load (%s): %w", path, err)
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Warn(w, zap.String("config", path))
	}
	return cfg, path, v, nil
}

func (c *common) logger() (*zap.Logger, error) {
	return logger.New(c.debug)
}
