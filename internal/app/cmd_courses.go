package app

import (
	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/api"
)

func addPageFlags(cmd *cobra.Command, opts *api.PageOptions) {
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size (0 uses the server default)")
}

func newCoursesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse the course catalogue",
	}

	var listOpts api.CourseListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List published courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			page, err := deps.client.Courses.List(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return rt.printJSON(page)
		},
	}
	addPageFlags(list, &listOpts.PageOptions)
	list.Flags().StringVar(&listOpts.Level, "level", "", "Filter by level (BEGINNER, INTERMEDIATE, ADVANCED)")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "get <slug>",
			Short: "Show a course",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				course, err := deps.client.Courses.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(course)
			},
		},
		&cobra.Command{
			Use:   "lessons <course-id>",
			Short: "List a course's lessons",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				lessons, err := deps.client.Courses.Lessons(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(lessons)
			},
		},
		&cobra.Command{
			Use:   "mine",
			Short: "List the courses you teach (instructors and admins)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				courses, err := deps.client.Courses.Mine(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(courses)
			},
		},
	)
	return cmd
}

func newEnrollmentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "Manage your course enrollments",
	}

	var paymentIntentID string
	enroll := &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			enrollment, err := deps.client.Enrollments.Enroll(cmd.Context(), args[0], paymentIntentID)
			if err != nil {
				return err
			}
			return rt.printJSON(enrollment)
		},
	}
	enroll.Flags().StringVar(&paymentIntentID, "payment-intent", "", "Payment intent ID for paid courses")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your enrollments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				enrollments, err := deps.client.Enrollments.List(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(enrollments)
			},
		},
		enroll,
		&cobra.Command{
			Use:   "status <course-id>",
			Short: "Report whether you are enrolled in a course",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				status, err := deps.client.Enrollments.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(status)
			},
		},
		&cobra.Command{
			Use:   "progress <enrollment-id>",
			Short: "Show progress through an enrolled course",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				progress, err := deps.client.Enrollments.Progress(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(progress)
			},
		},
		&cobra.Command{
			Use:   "complete <enrollment-id> <lesson-id>",
			Short: "Mark a lesson complete",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := deps.client.Enrollments.MarkComplete(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				return rt.printStatus("completed")
			},
		},
		&cobra.Command{
			Use:   "cancel <enrollment-id>",
			Short: "Cancel an enrollment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := deps.client.Enrollments.Cancel(cmd.Context(), args[0]); err != nil {
					return err
				}
				return rt.printStatus("cancelled")
			},
		},
	)
	return cmd
}
