package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"honquedoro/internal/localstore"
)

var (
	taskEstimate    int
	taskPriority    string
	taskCategory    string
	taskDescription string
	taskShowAll     bool
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		task, err := e.local.AddTask(localstore.NewTask{
			Title:              strings.Join(args, " "),
			Description:        taskDescription,
			EstimatedPomodoros: taskEstimate,
			Priority:           localstore.Priority(taskPriority),
			Category:           taskCategory,
		}, e.now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Added ")+renderTask(task, false))
		return nil
	}),
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		out := cmd.OutOrStdout()
		tasks := e.local.Tasks()
		localstore.SortTasks(tasks)
		settings, _ := e.local.Settings()

		shown := 0
		for _, task := range tasks {
			if task.Completed && !taskShowAll {
				continue
			}
			fmt.Fprintln(out, renderTask(task, task.ID == settings.CurrentTaskID))
			shown++
		}
		if shown == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No tasks."))
		}
		counts := localstore.CountTasks(tasks)
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d active, %d completed", counts.Active, counts.Completed)))
		return nil
	}),
}

var taskDoneCmd = &cobra.Command{
	Use:   "done REF",
	Short: "Toggle a task's completion",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		task, err := e.local.FindTask(args[0])
		if err != nil {
			return err
		}
		task, err = e.local.CompleteTask(task.ID, e.now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTask(task, false))
		return nil
	}),
}

var taskPinCmd = &cobra.Command{
	Use:   "pin REF",
	Short: "Toggle a task's pin",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		task, err := e.local.FindTask(args[0])
		if err != nil {
			return err
		}
		task, err = e.local.TogglePin(task.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTask(task, false))
		return nil
	}),
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete REF",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		task, err := e.local.FindTask(args[0])
		if err != nil {
			return err
		}
		if err := e.local.DeleteTask(task.ID); err != nil {
			return err
		}
		settings, _ := e.local.Settings()
		if settings.CurrentTaskID == task.ID {
			settings.CurrentTaskID = ""
			if err := e.local.SaveSettings(settings); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Deleted "+task.Title))
		return nil
	}),
}

var taskCurrentCmd = &cobra.Command{
	Use:   "current [REF]",
	Short: "Show or set the task credited with finished work intervals",
	Args:  cobra.MaximumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			title := currentTaskTitle(e.local)
			if title == "" {
				fmt.Fprintln(out, mutedStyle.Render("No current task."))
				return nil
			}
			fmt.Fprintln(out, title)
			return nil
		}
		task, err := setCurrentTask(e.local, args[0])
		if err != nil {
			return err
		}
		if task == nil {
			fmt.Fprintln(out, mutedStyle.Render("Cleared current task."))
			return nil
		}
		fmt.Fprintln(out, renderTask(*task, true))
		return nil
	}),
}

func init() {
	taskAddCmd.Flags().IntVarP(&taskEstimate, "estimate", "e", 1, "Estimated pomodoros (1-20)")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", string(localstore.PriorityMedium), "Priority: low, medium or high")
	taskAddCmd.Flags().StringVar(&taskCategory, "category", "", "Category")
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Description")
	taskListCmd.Flags().BoolVarP(&taskShowAll, "all", "a", false, "Include completed tasks")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskPinCmd, taskDeleteCmd, taskCurrentCmd)
	rootCmd.AddCommand(taskCmd)
}

// setCurrentTask selects the task for ref, or clears the selection when ref
// is "none" or empty.
func setCurrentTask(local *localstore.Store, ref string) (*localstore.Task, error) {
	settings, _ := local.Settings()
	if ref == "" || ref == "none" {
		settings.CurrentTaskID = ""
		return nil, local.SaveSettings(settings)
	}
	task, err := local.FindTask(ref)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, fmt.Errorf("task %q is completed", task.Title)
	}
	settings.CurrentTaskID = task.ID
	if err := local.SaveSettings(settings); err != nil {
		return nil, err
	}
	return &task, nil
}

// withEnv loads the environment before running fn.
func withEnv(fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		return fn(cmd, e, args)
	}
}
