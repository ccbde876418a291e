package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"mcpshadow/internal/infra/manifest"
)

func newManifestCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Create or check the client manifest",
	}
	cmd.AddCommand(
		newManifestInitCmd(opts),
		newManifestValidateCmd(opts),
	)
	return cmd
}

func newManifestInitCmd(opts *cliOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in manifest of well-known MCP clients",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifestPathArg(opts, args)
			if !force {
				if _, err := os.Stat(path); err == nil {
					return exitError{code: exitCodeFailure, message: fmt.Sprintf("%s already exists (use --force to overwrite)", path)}
				} else if !errors.Is(err, os.ErrNotExist) {
					return exitFor(err)
				}
			}
			if err := os.WriteFile(path, manifest.DefaultManifestBytes(), 0o644); err != nil {
				return exitFor(fmt.Errorf("write manifest: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newManifestValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check that a manifest parses and matches the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifestPathArg(opts, args)
			loaded, err := manifest.NewLoader(opts.logger).Load(cmd.Context(), path)
			if err != nil {
				return exitFor(err)
			}

			platforms := make([]string, 0, len(loaded.Platforms))
			for platform := range loaded.Platforms {
				platforms = append(platforms, platform)
			}
			sort.Strings(platforms)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", path)
			for _, platform := range platforms {
				clients, _ := loaded.Clients(platform)
				fmt.Fprintf(out, "  %s: %d clients\n", platform, len(clients))
			}
			return nil
		},
	}
}

func manifestPathArg(opts *cliOptions, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return opts.settings.ManifestPath
}
