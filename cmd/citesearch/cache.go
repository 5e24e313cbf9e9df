package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/cache"
	"github.com/citesearch/citesearch/internal/source"
)

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheRebuildCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the item cache",
}

// CacheStatus is the response for cache status.
type CacheStatus struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Current bool   `json:"current"`
	Items   int    `json:"items,omitempty"`
	Size    int64  `json:"size,omitempty"`
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the cache exists and is fresh",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings()
		path := cfg.CacheFilePath()
		if path == "" {
			exitWithError(ExitConfigError, "cache_path not configured")
		}

		status := CacheStatus{Path: path}
		if info, err := os.Stat(path); err == nil {
			status.Exists = true
			status.Size = info.Size()
		}
		current, err := cache.IsCurrent(cfg.SourcePath(), path)
		if err != nil {
			exitWithError(exitCode(err), "%v", err)
		}
		status.Current = current
		if status.Exists {
			if items, err := cache.Read(path); err == nil {
				status.Items = len(items)
			}
		}

		if humanOutput {
			state := "stale"
			if status.Current {
				state = "current"
			}
			if !status.Exists {
				state = "absent"
			}
			outputHuman("%s: %s (%d items, %d bytes)\n", path, state, status.Items, status.Size)
			return nil
		}
		return outputJSON(status)
	},
}

var cacheRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reparse the source and rewrite the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings()
		path := cfg.CacheFilePath()
		if path == "" {
			exitWithError(ExitConfigError, "cache_path not configured")
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			exitWithError(ExitError, "removing cache: %v", err)
		}

		result, err := source.Load(cfg, source.Request{})
		if err != nil {
			exitWithError(exitCode(err), "%v", err)
		}
		if result.CacheWarning != "" {
			exitWithError(ExitError, "rewriting cache: %s", result.CacheWarning)
		}

		if humanOutput {
			outputHuman("Cached %d items at %s\n", len(result.Items), path)
			return nil
		}
		return outputJSON(StatusResponse{Status: "rebuilt", Path: path})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings()
		path := cfg.CacheFilePath()
		if path == "" {
			exitWithError(ExitConfigError, "cache_path not configured")
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			exitWithError(ExitError, "removing cache: %v", err)
		}
		if humanOutput {
			outputHuman("Removed %s\n", path)
			return nil
		}
		return outputJSON(StatusResponse{Status: "cleared", Path: path})
	},
}
