package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable/internal/bootstrap"
	"github.com/noah-isme/sma-timetable/internal/dto"
)

// MigrateCmd creates the schema if it does not exist.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create timetable tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

// GenerateCmd groups the single-school generation commands.
func GenerateCmd() *cobra.Command {
	var (
		regenerate  bool
		incremental bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a timetable for a school, class or teacher",
	}
	cmd.PersistentFlags().BoolVar(&regenerate, "regenerate", false, "delete existing entries in scope before generating")

	school := &cobra.Command{
		Use:   "school <school-id>",
		Short: "Generate the whole school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Timetable.GenerateWholeSchool(ctx, dto.GenerateSchoolRequest{
					SchoolID:   args[0],
					Scope:      dto.GenerationScope(strings.ToUpper(scope)),
					Regenerate: regenerate,
				})
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), args[0], result)
				return nil
			})
		},
	}
	school.Flags().String("scope", string(dto.ScopeBoth), "ALL_CLASSES, ALL_TEACHERS or BOTH")

	class := &cobra.Command{
		Use:   "class <school-id> <class-id>",
		Short: "Generate one class",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Timetable.GenerateForClass(ctx, dto.GenerateClassRequest{
					SchoolID:    args[0],
					ClassID:     args[1],
					Incremental: incremental,
					Regenerate:  regenerate,
				})
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), args[0], result)
				return nil
			})
		},
	}

	teacher := &cobra.Command{
		Use:   "teacher <school-id> <teacher-id>",
		Short: "Generate one teacher or trainer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Timetable.GenerateForTeacher(ctx, dto.GenerateTeacherRequest{
					SchoolID:    args[0],
					TeacherID:   args[1],
					Incremental: incremental,
					Regenerate:  regenerate,
				})
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), args[0], result)
				return nil
			})
		},
	}

	for _, sub := range []*cobra.Command{class, teacher} {
		sub.Flags().BoolVar(&incremental, "incremental", false, "skip when the target already has entries")
	}
	cmd.AddCommand(school, class, teacher)
	return cmd
}

// ClearCmd deletes every entry of a school.
func ClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <school-id>",
		Short: "Delete the stored timetable of a school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear school %s without --yes", args[0])
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Timetable.ClearAll(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries from %s\n", result.Deleted, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

// ListCmd prints the stored timetable as a day by period table.
func ListCmd() *cobra.Command {
	var classID, teacherID string
	cmd := &cobra.Command{
		Use:   "list <school-id>",
		Short: "Print the stored timetable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				view, err := app.Timetable.ListTimetable(ctx, dto.TimetableQuery{SchoolID: args[0], ClassID: classID, TeacherID: teacherID})
				if err != nil {
					return err
				}
				printEntries(cmd.OutOrStdout(), app.Grid, view.Entries)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "only this class")
	cmd.Flags().StringVar(&teacherID, "teacher", "", "only this teacher")
	return cmd
}
