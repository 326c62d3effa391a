package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoritesCommand(ctx *commandContext) *cobra.Command {
	favCmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage the logged-in user's favorites",
	}
	favCmd.AddCommand(newFavoritesListCommand(ctx))
	favCmd.AddCommand(newFavoritesAddCommand(ctx))
	favCmd.AddCommand(newFavoritesRemoveCommand(ctx))
	return favCmd
}

func newFavoritesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				inst, err := s.signedIn(cmd.Context())
				if err != nil {
					return err
				}
				view := s.catalog.Favorites(inst.Favorites)
				if asJSON {
					return writeJSON(cmd, view)
				}
				user, _ := inst.Auth.CurrentUser()
				printCards(cmd.OutOrStdout(), fmt.Sprintf("My List (%s)", user.Username), view.Cards)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func newFavoritesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>",
		Short: "Add a movie to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withStack(cmd, func(s *stack) error {
				inst, err := s.signedIn(cmd.Context())
				if err != nil {
					return err
				}
				item, err := s.metadata.FetchByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := inst.Favorites.Add(cmd.Context(), item); err != nil {
					return fmt.Errorf("add favorite: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", item.Title)
				return nil
			})
		},
	}
}

func newFavoritesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a movie from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withStack(cmd, func(s *stack) error {
				inst, err := s.signedIn(cmd.Context())
				if err != nil {
					return err
				}
				removed, err := inst.Favorites.Remove(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("remove favorite: %w", err)
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Movie %d is not in favorites\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d from favorites\n", id)
				return nil
			})
		},
	}
}
