package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixrdev/grant-tagging-system/internal/config"
	"github.com/felixrdev/grant-tagging-system/internal/domain/grant"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/mode"
	"github.com/felixrdev/grant-tagging-system/internal/domain/search/query"
	healthuc "github.com/felixrdev/grant-tagging-system/internal/usecase/health"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/intake"
	"github.com/felixrdev/grant-tagging-system/internal/version"
)

// errDegraded makes `grants health` exit non-zero without printing twice.
var errDegraded = errors.New("backend degraded")

func newRootCmd() *cobra.Command {
	f := &globalFlags{}

	root := &cobra.Command{
		Use:           "grants",
		Short:         "Browse, search and submit grants against a grant tagging service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.env, "env", config.GetEnv(), "environment: local, dev, docker or prod")
	root.PersistentFlags().StringVarP(&f.config, "config", "c", "", "config file (default config/<env>.yaml)")
	root.PersistentFlags().StringVar(&f.apiURL, "api-url", "", "grant service base URL, overrides api.base_url")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&f.logFile, "log-file", "", "log file for non-server commands")

	root.AddCommand(
		newListCmd(f),
		newTagsCmd(f),
		newSearchCmd(f),
		newSubmitCmd(f),
		newSampleCmd(),
		newBrowseCmd(f),
		newServeCmd(f),
		newHealthCmd(f),
		newVersionCmd(),
	)
	return root
}

func newListCmd(f *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every grant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			grants, err := a.catalog.Grants(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), grants)
			}
			printGrants(cmd.OutOrStdout(), grants, "No grants yet")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTagsCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tag universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			tags, err := a.catalog.Tags(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newSearchCmd(f *globalFlags) *cobra.Command {
	var (
		tags   []string
		modeIn string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Run an advanced search; with no text and no tags, list every grant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) == 1 {
				text = args[0]
			}
			q, err := query.New(text, tags, mode.Mode(modeIn))
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if q.IsEmpty() {
				grants, err := a.catalog.Grants(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, grants)
				}
				printGrants(out, grants, "No grants yet")
				return nil
			}

			res, err := a.gateway.AdvancedSearch(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, res)
			}
			if len(res.ResolvedTags) > 0 {
				fmt.Fprintf(out, "Matched tags: %s\n\n", strings.Join(res.ResolvedTags, ", "))
			}
			printGrants(out, res.Grants, "No matching grants")
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag filter, repeatable or comma separated")
	cmd.Flags().StringVarP(&modeIn, "mode", "m", string(mode.Default), "tag match mode: all or any")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSubmitCmd(f *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Validate a JSON array of grants and send it for tagging (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			preview, err := a.intake.Validate(raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Validated %d grant(s)\n", len(preview))
			if dryRun {
				printGrants(out, preview, "")
				return nil
			}

			tagged, err := a.intake.Send(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Successfully tagged %d grants\n\n", len(tagged))
			printGrants(out, tagged, "")
			fmt.Fprintln(out, intake.Summarize(tagged))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, do not send")
	return cmd
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print a sample submission payload",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), intake.Sample)
		},
	}
}

func newHealthCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the grant service and the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), f, logToFile)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.health.Check(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Status != healthuc.Healthy {
				return errDegraded
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printGrants(w io.Writer, grants []grant.Grant, empty string) {
	if len(grants) == 0 {
		if empty != "" {
			fmt.Fprintln(w, empty)
		}
		return
	}
	for _, g := range grants {
		fmt.Fprintln(w, g.Name)
		if g.Description != "" {
			fmt.Fprintf(w, "  %s\n", g.Description)
		}
		if len(g.Tags) > 0 {
			fmt.Fprintf(w, "  tags: %s\n", strings.Join(g.Tags, ", "))
		}
		for _, u := range g.WebsiteURLs {
			fmt.Fprintf(w, "  web: %s\n", u)
		}
		for _, u := range g.DocumentURLs {
			fmt.Fprintf(w, "  doc: %s\n", u)
		}
		fmt.Fprintln(w)
	}
}
