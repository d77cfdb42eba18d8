package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbaille/linkloom/internal/briefing"
	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/ingest"
	"github.com/pbaille/linkloom/internal/logger"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add URLs and notes to the active briefing (reads stdin without args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(raw) == "" {
				return fmt.Errorf("nothing to add")
			}

			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireActive(); err != nil {
				return err
			}

			var res classifier.Result
			if urlOnly {
				src, ok := a.clf.TryClassifyURL(strings.TrimSpace(raw))
				if !ok {
					return fmt.Errorf("not a valid http(s) URL: %s", truncate(strings.TrimSpace(raw), 60))
				}
				res = classifier.Result{Sources: []domain.Source{src}}
			} else {
				res = a.clf.Classify(raw)
			}

			if err := a.store.AddItems(res.Sources, res.Notes); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range res.Sources {
				if s.IsValid {
					fmt.Fprintf(out, "  + source %s  %s\n", shortID(s.ID), s.Domain)
				} else {
					fmt.Fprintf(out, "  ! source %s  %s (invalid URL)\n", shortID(s.ID), truncate(s.URL, 60))
				}
			}
			for _, n := range res.Notes {
				fmt.Fprintf(out, "  + note   %s  %s\n", shortID(n.ID), truncate(n.Text, 60))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&urlOnly, "url", false, "require the input to be a single URL")
	return cmd
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Classify text, Markdown and HTML files into the active briefing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireActive(); err != nil {
				return err
			}

			in := ingest.New(a.clf, a.store, a.log.With(logger.String("component", "ingest")))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()
			for _, r := range in.Files(ctx, args) {
				switch {
				case r.Skipped:
					fmt.Fprintf(out, "  - %s (skipped: not a text file)\n", r.Name)
				case r.Err != nil:
					fmt.Fprintf(out, "  ! %s: %v\n", r.Name, r.Err)
				default:
					fmt.Fprintf(out, "  + %s (%s, %s)\n", r.Name,
						plural(r.Sources, "source"), plural(r.Notes, "note"))
				}
			}
			return nil
		},
	}
}

func itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "List the sources and notes of the active briefing with their ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			b, ok := a.store.Active()
			if !ok {
				return a.requireActive()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", shortID(b.ID), b.Title)
			if len(b.Sources) == 0 && len(b.Notes) == 0 {
				fmt.Fprintln(out, "No items yet. Use 'linkloom add' or 'linkloom ingest'.")
				return nil
			}
			for _, s := range b.Sources {
				label := s.Domain
				if !s.IsValid {
					label = "invalid"
				}
				fmt.Fprintf(out, "source %s  %s  [%s]  %s\n", shortID(s.ID), truncate(s.Title, 40), label, s.URL)
			}
			for _, n := range b.Notes {
				fmt.Fprintf(out, "note   %s  %s\n", shortID(n.ID), truncate(n.Text, 70))
			}
			return nil
		},
	}
}

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Edit sources of the active briefing",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "title [id] [title]",
		Short: "Set a source title (blank resets it to the domain)",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSource(func(a *app, id string, args []string) error {
			return a.store.CommitSourceTitle(id, strings.Join(args, " "))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "url [id] [url]",
		Short: "Point a source at a new URL",
		Args:  cobra.ExactArgs(2),
		RunE: withSource(func(a *app, id string, args []string) error {
			return a.store.UpdateSource(id, briefing.URLPatch(args[0]))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a source",
		Args:  cobra.ExactArgs(1),
		RunE: withSource(func(a *app, id string, _ []string) error {
			return a.store.DeleteSource(id)
		}),
	})

	return cmd
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Edit notes of the active briefing",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "edit [id] [text]",
		Short: "Replace a note's text (blank text deletes the note)",
		Args:  cobra.MinimumNArgs(1),
		RunE: withNote(func(a *app, id string, args []string) error {
			return a.store.CommitNote(id, strings.Join(args, " "))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(1),
		RunE: withNote(func(a *app, id string, _ []string) error {
			return a.store.DeleteNote(id)
		}),
	})

	return cmd
}

type itemFunc func(a *app, id string, rest []string) error

func withSource(fn itemFunc) func(*cobra.Command, []string) error {
	return withItem(func(a *app) func(string) (string, error) { return a.store.FindSource }, fn)
}

func withNote(fn itemFunc) func(*cobra.Command, []string) error {
	return withItem(func(a *app) func(string) (string, error) { return a.store.FindNote }, fn)
}

// withItem opens a session, resolves args[0] to an item id and runs fn
func withItem(finder func(*app) func(string) (string, error), fn itemFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openSession()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireActive(); err != nil {
			return err
		}
		id, err := finder(a)(args[0])
		if err != nil {
			return err
		}
		return fn(a, id, args[1:])
	}
}
