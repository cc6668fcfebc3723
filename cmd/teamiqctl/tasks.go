package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	tasksStatus  string
	tasksProject string
)

// taskRow is the slice of the server's task shape the listing needs.
type taskRow struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StoryPoints int        `json:"story_points"`
	DueDate     *time.Time `json:"due_date"`
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks visible to the signed-in user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, err := newSession()
		if err != nil {
			return err
		}

		query := url.Values{}
		if tasksStatus != "" {
			query.Set("status", tasksStatus)
		}
		if tasksProject != "" {
			query.Set("project_id", tasksProject)
		}
		path := "/api/tasks"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var tasks []taskRow
		if err := client.Get(cmd.Context(), path, &tasks); err != nil {
			return loginHint(err)
		}

		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tPOINTS\tDUE")
		for _, task := range tasks {
			due := "-"
			if task.DueDate != nil {
				due = task.DueDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				task.ID, task.Title, task.Status, task.Priority, task.StoryPoints, due)
		}
		return w.Flush()
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status (todo, in_progress, in_review, done, blocked)")
	tasksListCmd.Flags().StringVar(&tasksProject, "project", "", "filter by project id")
	tasksCmd.AddCommand(tasksListCmd)
	rootCmd.AddCommand(tasksCmd)
}
