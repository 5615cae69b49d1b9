package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/stickies/pkg/core"
)

// DateLayout is the accepted --date format.
const DateLayout = "2006-01-02"

var (
	listJSON     bool
	listSearch   string
	listCategory string
	listDate     string
)

// noteView is the CLI rendering of a note.
type noteView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	CreatedAt    time.Time  `json:"createdAt"`
	Reminder     string     `json:"reminder"`
	ReminderTime *time.Time `json:"reminderTime,omitempty"`
}

func viewOf(n core.Note, loc *time.Location) noteView {
	v := noteView{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Category:  string(n.Category),
		CreatedAt: n.CreatedAt.In(loc),
		Reminder:  n.Reminder.State().String(),
	}
	if at, ok := n.Reminder.Time(); ok {
		at = at.In(loc)
		v.ReminderTime = &at
	}
	return v
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		loc := app.Store.Location()
		filter := core.Filter{SearchText: listSearch}

		if listCategory != "" {
			c, err := core.ParseCategory(listCategory)
			if err != nil {
				return err
			}
			filter.Category = c
		}
		if listDate != "" {
			day, err := time.ParseInLocation(DateLayout, listDate, loc)
			if err != nil {
				return fmt.Errorf("invalid --date (want %s): %w", DateLayout, err)
			}
			filter.OnDate = day
		}

		views := []noteView{}
		for n := range app.Store.ListNotes(filter) {
			views = append(views, viewOf(n, loc))
		}

		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(views)
		}
		return printNotes(cmd.OutOrStdout(), views)
	},
}

func printNotes(out io.Writer, views []noteView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(out, "No notes.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tCREATED\tTITLE\tREMINDER")
	for _, v := range views {
		reminder := "-"
		if v.ReminderTime != nil {
			reminder = fmt.Sprintf("%s (%s)", v.ReminderTime.Format(ReminderLayout), v.Reminder)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Category, v.CreatedAt.Format(ReminderLayout), v.Title, reminder)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive text in title or content")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Category, or \"all\"")
	listCmd.Flags().StringVar(&listDate, "date", "", "Only notes created on this day (YYYY-MM-DD)")
}
