package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/api"
)

func newPostsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write community posts",
	}

	var listOpts api.PostListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List community posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			page, err := deps.client.Community.Posts(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			return rt.printJSON(page)
		},
	}
	addPageFlags(list, &listOpts.PageOptions)
	list.Flags().StringVar(&listOpts.Type, "type", "", "Filter by type (DISCUSSION, QUESTION, SHOWCASE)")

	var createIn api.PostInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Publish a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			post, err := deps.client.Community.Create(cmd.Context(), createIn)
			if err != nil {
				return err
			}
			return rt.printJSON(post)
		},
	}
	addPostFlags(create, &createIn)

	var updateIn api.PostInput
	update := &cobra.Command{
		Use:   "update <post-id>",
		Short: "Edit one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			post, err := deps.client.Community.Update(cmd.Context(), args[0], updateIn)
			if err != nil {
				return err
			}
			return rt.printJSON(post)
		},
	}
	addPostFlags(update, &updateIn)

	var comment string
	commentCmd := &cobra.Command{
		Use:   "comment <post-id>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			created, err := deps.client.Community.AddComment(cmd.Context(), args[0], comment)
			if err != nil {
				return err
			}
			return rt.printJSON(created)
		},
	}
	commentCmd.Flags().StringVar(&comment, "content", "", "Comment text")
	_ = commentCmd.MarkFlagRequired("content")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "get <post-id>",
			Short: "Show a post with its comments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				post, err := deps.client.Community.Post(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(post)
			},
		},
		create,
		update,
		&cobra.Command{
			Use:   "like <post-id>",
			Short: "Like a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				post, err := deps.client.Community.Like(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(post)
			},
		},
		commentCmd,
		&cobra.Command{
			Use:   "delete <post-id>",
			Short: "Delete a post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := deps.client.Community.DeletePost(cmd.Context(), args[0]); err != nil {
					return err
				}
				return rt.printStatus("deleted")
			},
		},
		&cobra.Command{
			Use:   "delete-comment <comment-id>",
			Short: "Delete a comment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := deps.client.Community.DeleteComment(cmd.Context(), args[0]); err != nil {
					return err
				}
				return rt.printStatus("deleted")
			},
		},
	)
	return cmd
}

func addPostFlags(cmd *cobra.Command, in *api.PostInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "Post title")
	cmd.Flags().StringVar(&in.Content, "content", "", "Post body")
	cmd.Flags().StringVar(&in.Type, "type", "", "Post type (DISCUSSION, QUESTION, SHOWCASE)")
}

func newForumCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forum",
		Short: "Browse and take part in the forum",
	}

	var threadOpts api.PageOptions
	threads := &cobra.Command{
		Use:   "threads <category-slug>",
		Short: "List a category's threads, pinned first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			page, err := deps.client.Forum.Threads(cmd.Context(), args[0], threadOpts)
			if err != nil {
				return err
			}
			return rt.printJSON(page)
		},
	}
	addPageFlags(threads, &threadOpts)

	var title, body string
	createThread := &cobra.Command{
		Use:   "create-thread <category-slug>",
		Short: "Start a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			thread, err := deps.client.Forum.CreateThread(cmd.Context(), args[0], title, body)
			if err != nil {
				return err
			}
			return rt.printJSON(thread)
		},
	}
	createThread.Flags().StringVar(&title, "title", "", "Thread title")
	createThread.Flags().StringVar(&body, "body", "", "Opening post")

	var replyOpts api.PageOptions
	replies := &cobra.Command{
		Use:   "replies <thread-id>",
		Short: "List a thread's replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			page, err := deps.client.Forum.Replies(cmd.Context(), args[0], replyOpts)
			if err != nil {
				return err
			}
			return rt.printJSON(page)
		},
	}
	addPageFlags(replies, &replyOpts)

	var content string
	reply := &cobra.Command{
		Use:   "reply <thread-id>",
		Short: "Reply to a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			created, err := deps.client.Forum.Reply(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			return rt.printJSON(created)
		},
	}
	reply.Flags().StringVar(&content, "content", "", "Reply text")
	_ = reply.MarkFlagRequired("content")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "categories",
			Short: "List forum categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				categories, err := deps.client.Forum.Categories(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(categories)
			},
		},
		threads,
		&cobra.Command{
			Use:   "thread <thread-id>",
			Short: "Show a thread",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				thread, err := deps.client.Forum.Thread(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(thread)
			},
		},
		createThread,
		replies,
		reply,
		&cobra.Command{
			Use:   "accept <reply-id>",
			Short: "Mark a reply as the accepted answer",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				accepted, err := deps.client.Forum.AcceptReply(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(accepted)
			},
		},
		forumActionCmd(rt, "delete-reply <reply-id>", "Delete a reply", "deleted", (*api.ForumService).DeleteReply),
		forumActionCmd(rt, "delete-thread <thread-id>", "Delete a thread", "deleted", (*api.ForumService).DeleteThread),
		forumActionCmd(rt, "lock <thread-id>", "Lock a thread against new replies (admins)", "locked", (*api.ForumService).LockThread),
		forumActionCmd(rt, "pin <thread-id>", "Pin a thread to the top of its category (admins)", "pinned", (*api.ForumService).PinThread),
	)
	return cmd
}

// forumActionCmd builds a one-argument forum command whose API call returns no body.
func forumActionCmd(rt *runtime, use, short, status string, action func(*api.ForumService, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			if err := action(deps.client.Forum, cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.printStatus(status)
		},
	}
}
