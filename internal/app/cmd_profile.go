package app

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/config"
	"github.com/codenestai/client/internal/models"
	"github.com/codenestai/client/internal/storage"
)

// avatarUploader stores an avatar image and returns its public location.
type avatarUploader interface {
	UploadAvatar(ctx context.Context, userID, path string) (string, error)
}

func newS3AvatarUploader(ctx context.Context, cfg config.ObjectStoreConfig) (avatarUploader, error) {
	return storage.NewS3AvatarStorage(ctx, cfg)
}

func newProfileCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit user profiles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the signed-in user's profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				user, err := deps.client.Users.Me(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(user)
			},
		},
		&cobra.Command{
			Use:   "get <user-id>",
			Short: "Show another user's public profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				user, err := deps.client.Users.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return rt.printJSON(user)
			},
		},
		newProfileUpdateCmd(rt),
		newProfileAvatarCmd(rt),
	)
	return cmd
}

func newProfileUpdateCmd(rt *runtime) *cobra.Command {
	var firstName, lastName, bio, avatarURL string

	cmd := withSession(&cobra.Command{
		Use:   "update",
		Short: "Update profile fields; only the flags given are changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var req models.UpdateProfileRequest
			if flags.Changed("first-name") {
				req.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				req.LastName = &lastName
			}
			if flags.Changed("bio") {
				req.Bio = &bio
			}
			if flags.Changed("avatar-url") {
				req.AvatarURL = &avatarURL
			}
			if req == (models.UpdateProfileRequest{}) {
				return errors.New("nothing to update; pass at least one field flag")
			}

			auth, err := restore(cmd.Context())
			if err != nil {
				return err
			}
			user, err := auth.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			return rt.printJSON(user)
		},
	})

	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&bio, "bio", "", "Short biography")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "Avatar image URL")
	return cmd
}

func newProfileAvatarCmd(rt *runtime) *cobra.Command {
	return withSession(&cobra.Command{
		Use:   "avatar <image-file>",
		Short: "Upload an avatar image and set it on the profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			auth, err := restore(ctx)
			if err != nil {
				return err
			}
			deps, err := rt.dependencies(ctx)
			if err != nil {
				return err
			}

			newUploader := rt.avatars
			if newUploader == nil {
				newUploader = newS3AvatarUploader
			}
			uploader, err := newUploader(ctx, deps.cfg.Avatars)
			if err != nil {
				return err
			}

			location, err := uploader.UploadAvatar(ctx, auth.User().ID, args[0])
			if err != nil {
				return err
			}
			deps.logger.Info("avatar uploaded", "location", location)

			user, err := auth.UpdateProfile(ctx, models.UpdateProfileRequest{AvatarURL: &location})
			if err != nil {
				return err
			}
			return rt.printJSON(user)
		},
	})
}
