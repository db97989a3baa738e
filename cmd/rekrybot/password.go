package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"rekrybot/internal/config"
	"rekrybot/internal/secrets"
)

func checkConfigMain(args []string) error {
	var c common
	fs := flag.NewFlagSet("check-config", flag.ContinueOnError)
	c.register(fs)
	write := fs.Bool("write", false, "save the normalized config back to the file (old copy kept as .bak)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log, err := c.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, path, v, err := c.load(log)
	if err != nil {
		return err
	}
	if err := v.Err(); err != nil {
		return err
	}
	if *write {
		if err := config.SaveAtomic(path, cfg); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		fmt.Printf("%s: ok, saved\n", path)
		return nil
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

func setPasswordMain(args []string) error {
	account, err := keyringAccount("set-password", args)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "IMAP password for %s: ", account)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if err := secrets.SetIMAPPassword(account, pw); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "stored in keychain")
	return nil
}

func deletePasswordMain(args []string) error {
	account, err := keyringAccount("delete-password", args)
	if err != nil {
		return err
	}
	return secrets.DeleteIMAPPassword(account)
}

func keyringAccount(name string, args []string) (string, error) {
	var c common
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	log, err := c.logger()
	if err != nil {
		return "", err
	}
	defer func() { _ = log.Sync() }()

	cfg, _, _, err := c.load(log)
	if err != nil {
		return "", err
	}
	if cfg.IMAP.Host == "" || cfg.IMAP.Username == "" {
		return "", errors.New("set imap.host and imap.username in the config first")
	}
	return secrets.IMAPKeyringAccount(cfg), nil
}
