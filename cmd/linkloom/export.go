package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/export"
	"github.com/pbaille/linkloom/internal/logger"
	"github.com/spf13/cobra"
)

// pickBriefing returns the briefing named by args[0], or the active one
func pickBriefing(a *app, args []string) (domain.Briefing, error) {
	if len(args) == 0 {
		b, ok := a.store.Active()
		if !ok {
			return domain.Briefing{}, a.requireActive()
		}
		return b, nil
	}

	id, err := a.store.FindBriefing(args[0])
	if err != nil {
		return domain.Briefing{}, err
	}
	state := a.store.State()
	return state.Briefings[state.Index(id)], nil
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a briefing as Markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := pickBriefing(a, args)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), export.RenderMarkdown(b))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a briefing to a Markdown file named after its title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := pickBriefing(a, args)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, export.SuggestFilename(b.Title))
			if err := os.WriteFile(path, []byte(export.RenderMarkdown(b)), 0644); err != nil {
				return fmt.Errorf("write markdown: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", ".", "output directory")
	return cmd
}

func shareCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "share [id]",
		Short: "Print a share link carrying the briefing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := pickBriefing(a, args)
			if err != nil {
				return err
			}
			if base == "" {
				base = a.cfg.Share.BaseURL
			}

			link, err := export.ShareURL(base, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "base URL of the share link (defaults to share.base_url)")
	return cmd
}

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [share-url]",
		Short: "Import a briefing from a share link or payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			payload, ok := export.ParseShareURL(args[0])
			if !ok {
				a.log.Warn("no share payload in link", logger.String("link", truncate(args[0], 80)))
				fmt.Fprintln(out, "No share payload found; nothing imported.")
				return a.store.Init(nil)
			}

			shared, err := export.DecodeShare(payload, a.ids)
			if err != nil {
				a.log.Warn("skipping share import", logger.Error(err))
				fmt.Fprintln(out, "Share link could not be decoded; nothing imported.")
				return a.store.Init(nil)
			}

			if err := a.store.Init(&shared); err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported briefing: %s  %s (%s · %s)\n",
				shortID(shared.ID), shared.Title,
				plural(len(shared.Sources), "source"), plural(len(shared.Notes), "note"))
			return nil
		},
	}
}
