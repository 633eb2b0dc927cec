package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/introspec/packages/core/config"
	"github.com/abdul-hamid-achik/introspec/packages/rewrite"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the rewrite cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show rewrite cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, dir, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		n, err := cache.Len()
		if err != nil {
			return fmt.Errorf("reading cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\n", dir)
		fmt.Fprintf(cmd.OutOrStdout(), "Programs: %d\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached rewritten programs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, dir, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared: %s\n", dir)
		return nil
	},
}

func openCache() (*rewrite.Cache, string, error) {
	dir := cacheDirFlag
	if dir == "" {
		dir = config.DefaultCacheDir
	}
	cache, err := rewrite.OpenCache(dir)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	return cache, dir, nil
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Directory for the rewrite cache")
}
