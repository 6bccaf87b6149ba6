package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ougirez/cancensus/internal/pkg/constants"
)

func (a *app) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the CensusMapper API key",
	}

	var sessionOnly bool
	set := &cobra.Command{
		Use:   "set KEY",
		Short: "Store the API key in the key store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.SetAPIKey(args[0], !sessionOnly); err != nil {
				return err
			}
			if !sessionOnly {
				fmt.Fprintf(a.out, "API key saved to %s\n", a.settings.KeyStorePath())
			}
			return nil
		},
	}
	set.Flags().BoolVar(&sessionOnly, "session", false, "do not persist the key")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Delete the API key from the key store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.RemoveAPIKey(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "API key removed")
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the API key in effect, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := a.settings.APIKey()
			if key == "" {
				return constants.ErrMissingCredential
			}
			fmt.Fprintln(a.out, maskKey(key))
			return nil
		},
	}

	cmd.AddCommand(set, remove, show)
	return cmd
}

// maskKey keeps the last four characters of key.
func maskKey(key string) string {
	const visible = 4
	if len(key) <= visible {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-visible) + key[len(key)-visible:]
}

func (a *app) cachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-path",
		Short: "Print the cache directory in effect",
		Long: `Print the cache directory in effect. Change it with --cache-path or the
CANCENSUS_CACHE_PATH environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.settings.CachePath())
			return nil
		},
	}
}

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached responses",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cached responses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			entries, err := svc.ListCache(cmd.Context())
			if err != nil {
				return err
			}
			return a.printCacheEntries(entries, time.Now())
		},
	}

	remove := &cobra.Command{
		Use:   "remove KEY...",
		Short: "Remove cached responses by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			for _, key := range args {
				if err := svc.RemoveCache(cmd.Context(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			n, err := svc.ClearCache(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %d cached responses from %s\n", n, a.settings.CachePath())
			return nil
		},
	}

	cmd.AddCommand(list, remove, clearCmd)
	return cmd
}
