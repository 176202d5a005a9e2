package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yukikurage/taskboard-web/internal/board"
	"github.com/yukikurage/taskboard-web/internal/models"
	"github.com/yukikurage/taskboard-web/internal/reconciler"
	"github.com/yukikurage/taskboard-web/internal/session"
)

// loadedBoard fetches the board and returns a reconciler over it. Notices are
// written to out as they are raised.
func loadedBoard(ctx context.Context, opts *globalOptions, out io.Writer) (*reconciler.Reconciler, error) {
	sess, err := session.FromToken(opts.token)
	if err != nil {
		return nil, fmt.Errorf("invalid --token: %w", err)
	}

	notify := reconciler.NotifierFunc(func(n reconciler.Notice) {
		if n.Level == reconciler.LevelError {
			fmt.Fprintln(out, "!", n.Message)
			return
		}
		fmt.Fprintln(out, n.Message)
	})
	rec := reconciler.New(board.NewStore(), opts.client(), sess, notify, opts.logger(), reconciler.Options{})
	if res := rec.Load(ctx); res.Err != nil {
		return nil, res.Err
	}
	return rec, nil
}

func newBoardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadedBoard(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), rec.Store())
			return nil
		},
	}
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	var description, status string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatus(status)
			if err != nil {
				return err
			}
			rec, err := loadedBoard(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res := rec.Create(cmd.Context(), models.Draft{Title: args[0], Description: description, Status: st})
			if res.Err != nil {
				return res.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.TaskID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&status, "status", "s", "todo", "column: todo, progress or done")
	return cmd
}

func newEditCmd(opts *globalOptions) *cobra.Command {
	var title, description, status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadedBoard(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			task, ok := rec.Store().Get(args[0])
			if !ok {
				return fmt.Errorf("no task with id %s", args[0])
			}
			if cmd.Flags().Changed("title") {
				task.Title = title
			}
			if cmd.Flags().Changed("description") {
				task.Description = description
			}
			if cmd.Flags().Changed("status") {
				if task.Status, err = parseStatus(status); err != nil {
					return err
				}
			}
			return rec.Update(cmd.Context(), task.ID, task).Err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "new column: todo, progress or done")
	return cmd
}

func newMoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <column> <index> <to-column> <to-index>",
		Short: "Drag a task from one column slot to another",
		Example: `  taskboard move todo 0 progress 0
  taskboard move done 2 done 0`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parsePosition(args[0], args[1])
			if err != nil {
				return err
			}
			dst, err := parsePosition(args[2], args[3])
			if err != nil {
				return err
			}
			rec, err := loadedBoard(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			res := rec.Move(cmd.Context(), reconciler.MoveEvent{Source: src, Destination: &dst})
			if res.Err != nil {
				return res.Err
			}
			if res.Ignored {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to move")
				return nil
			}
			printBoard(cmd.OutOrStdout(), rec.Store())
			return nil
		},
	}
}

func newRmCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadedBoard(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return rec.Delete(cmd.Context(), args[0]).Err
		},
	}
}

func printBoard(w io.Writer, store *board.Store) {
	for _, col := range store.Columns() {
		fmt.Fprintf(w, "%s (%d)\n", col.Status, len(col.Tasks))
		for i, t := range col.Tasks {
			fmt.Fprintf(w, "  %d. [%s] %s\n", i, t.ID, t.Title)
		}
	}
}

func parseStatus(s string) (models.Status, error) {
	switch strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)) {
	case "todo":
		return models.StatusTodo, nil
	case "progress", "inprogress", "doing":
		return models.StatusInProgress, nil
	case "done":
		return models.StatusDone, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

func parsePosition(column, index string) (reconciler.Position, error) {
	st, err := parseStatus(column)
	if err != nil {
		return reconciler.Position{}, err
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 {
		return reconciler.Position{}, fmt.Errorf("invalid index %q", index)
	}
	return reconciler.Position{Status: st, Index: i}, nil
}
