package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/sportsdesk/internal/feed"
)

func roundupCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "roundup",
		Short: "Fetch the hourly sports roundup once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			return printResult(a.fetcher.FetchRoundup(cmd.Context()))
		},
	}
}

func articlesCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "articles",
		Short: "Fetch the article batch once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			return printResult(a.fetcher.FetchArticles(cmd.Context()))
		},
	}
}

// printResult writes the fetched value and fails the command only when the
// credential was rejected; degraded results are still printed.
func printResult[T any](res feed.Result[T]) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"outcome": res.Outcome.String(),
		"detail":  res.Detail,
		"value":   res.Value,
	}); err != nil {
		return err
	}
	if res.Outcome == feed.OutcomeCredentialInvalid {
		return res.Err
	}
	return nil
}
