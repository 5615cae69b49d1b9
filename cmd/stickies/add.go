package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/stickies/pkg/core"
)

// ReminderLayout is the accepted --remind format, read in the configured time zone.
const ReminderLayout = "2006-01-02 15:04"

var (
	addTitle    string
	addContent  string
	addCategory string
	addRemind   string
	addIn       time.Duration
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Long: `Create a note, optionally with a reminder.

  stickies add -t "Buy milk" -m "2%" --category todos --remind "2026-10-15 18:05"
  stickies add -t "Stretch" -m "5 minutes" --in 45m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		category, err := core.ParseCategory(addCategory)
		if err != nil {
			return err
		}

		draft := core.Draft{
			Title:    addTitle,
			Content:  addContent,
			Category: category,
		}

		switch {
		case addRemind != "" && addIn != 0:
			return fmt.Errorf("--remind and --in are mutually exclusive")
		case addRemind != "":
			at, err := time.ParseInLocation(ReminderLayout, addRemind, app.Store.Location())
			if err != nil {
				return fmt.Errorf("invalid --remind (want %q): %w", ReminderLayout, err)
			}
			draft.Reminder, draft.ReminderTime = true, at
		case addIn != 0:
			draft.Reminder, draft.ReminderTime = true, app.Store.Now().Add(addIn)
		}

		note, err := app.Store.AddNote(ctx, draft)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Note '%s' created.\n", note.ID)
		if at, ok := note.Reminder.Time(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder set for %s.\n", at.In(app.Store.Location()).Format(ReminderLayout))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Note title (required)")
	addCmd.Flags().StringVarP(&addContent, "content", "m", "", "Note content (required)")
	addCmd.Flags().StringVar(&addCategory, "category", "personal", "Category: personal, work, ideas or todos")
	addCmd.Flags().StringVar(&addRemind, "remind", "", "Reminder time, e.g. \"2026-10-15 18:05\"")
	addCmd.Flags().DurationVar(&addIn, "in", 0, "Reminder after a delay, e.g. 45m")
}
