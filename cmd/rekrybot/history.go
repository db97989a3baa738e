package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"rekrybot/internal/store"
)

func historyMain(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	c.register(fs)
	limit := fs.Int("limit", 10, "max runs to show")
	postings := fs.Bool("postings", false, "also list each run's postings")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := c.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// The ledger location is all history needs; digest settings may be incomplete.
	cfg, cfgPath, _, err := c.load(log)
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, filepath.Join(cfg.ResolveDataDir(cfgPath), "rekrybot.db"))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSOURCE\tMESSAGES\tARCHIVE\tDRY RUN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%t\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Source, r.MessageCount, r.Archive, r.DryRun)
		if !*postings {
			continue
		}
		ps, err := db.PostingsForRun(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Fprintf(tw, "\t  %d: %s\t\t\tDL: %s\t\n", p.Position, p.Subject, p.Result())
		}
	}
	return tw.Flush()
}
