package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List briefings, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			state := a.store.State()
			out := cmd.OutOrStdout()
			if len(state.Briefings) == 0 {
				fmt.Fprintln(out, "No briefings yet. Use 'linkloom new' to create one.")
				return nil
			}

			for _, b := range state.ByRecency() {
				marker := " "
				if b.ID == state.ActiveID() {
					marker = "*"
				}
				title := b.Title
				if title == "" {
					title = "Untitled"
				}
				fmt.Fprintf(out, "%s %s  %s  (%s · %s)\n",
					marker, shortID(b.ID), truncate(title, 50),
					plural(len(b.Sources), "source"), plural(len(b.Notes), "note"))
			}
			return nil
		},
	}
}

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create a briefing and make it active",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.store.Create(strings.TrimSpace(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created briefing: %s  %s\n", shortID(b.ID), b.Title)
			return nil
		},
	}
}

func useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use [id]",
		Short: "Select the active briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.store.FindBriefing(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Select(id); err != nil {
				return err
			}

			b, _ := a.store.Active()
			fmt.Fprintf(cmd.OutOrStdout(), "Active briefing: %s  %s\n", shortID(b.ID), b.Title)
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.store.FindBriefing(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Delete(id); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted briefing: %s\n", shortID(id))
			if b, ok := a.store.Active(); ok {
				fmt.Fprintf(out, "Active briefing: %s  %s\n", shortID(b.ID), b.Title)
			} else {
				fmt.Fprintln(out, "No briefings left.")
			}
			return nil
		},
	}
}

func titleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "title [text]",
		Short: "Rename the active briefing",
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
			return a.store.SetTitle(strings.Join(args, " "))
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every source and note from the active briefing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireActive(); err != nil {
				return err
			}
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared all items.")
			return nil
		},
	}
}
