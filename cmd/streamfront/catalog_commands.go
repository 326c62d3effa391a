package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streamfront/models"
	"streamfront/services/catalog"
)

func newCatalogCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newHomeCommand(ctx),
		newMovieCommand(ctx),
		newSearchCommand(ctx),
		newCategoryCommand(ctx),
	}
}

func newHomeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the home page rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStack(cmd, func(s *stack) error {
				view, err := s.catalog.Home(cmd.Context(), s.optionalFavorites(cmd.Context()))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				if view.Banner != nil {
					colorize := shouldColorize(out)
					fmt.Fprintln(out, renderHeading(view.Banner.Title, colorize))
					fmt.Fprintln(out, view.Banner.Overview)
					fmt.Fprintln(out)
				}
				for _, row := range view.Rows {
					printCards(out, row.Title, row.Cards)
				}
				for _, failed := range view.Failed {
					fmt.Fprintf(out, "warn: %s could not be loaded\n", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func newMovieCommand(ctx *commandContext) *cobra.Command {
	var asJSON, trailer bool
	cmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Show a movie's details and similar titles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withStack(cmd, func(s *stack) error {
				if trailer {
					player, err := s.catalog.Trailer(cmd.Context(), id)
					if err != nil {
						if errors.Is(err, catalog.ErrNoTrailer) {
							return fmt.Errorf("movie %d has no trailer", id)
						}
						return err
					}
					if asJSON {
						return writeJSON(cmd, player)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", player.Name, player.EmbedURL)
					return nil
				}

				view, err := s.catalog.Details(cmd.Context(), id, s.optionalFavorites(cmd.Context()))
				if err != nil {
					return err
				}
				if view.Status == catalog.StatusNotFound {
					return fmt.Errorf("movie %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				printMovie(cmd, view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	cmd.Flags().BoolVar(&trailer, "trailer", false, "Print the trailer embed URL instead")
	return cmd
}

func printMovie(cmd *cobra.Command, view catalog.DetailsView) {
	out := cmd.OutOrStdout()
	movie := view.Movie
	colorize := shouldColorize(out)

	title := movie.Title
	if movie.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, movie.Year)
	}
	fmt.Fprintln(out, renderHeading(title, colorize))

	var facts []string
	if movie.Runtime != "" {
		facts = append(facts, movie.Runtime)
	}
	facts = append(facts, movie.Rating)
	if len(movie.Genres) > 0 {
		facts = append(facts, strings.Join(movie.Genres, ", "))
	}
	if view.IsFavorite {
		facts = append(facts, "in favorites")
	}
	fmt.Fprintln(out, strings.Join(facts, " | "))
	if movie.Overview != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, movie.Overview)
	}
	if len(movie.Companies) > 0 {
		names := make([]string, 0, len(movie.Companies))
		for _, c := range movie.Companies {
			names = append(names, c.Name)
		}
		fmt.Fprintf(out, "\nProduced by %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintln(out)
	printCards(out, "More Like This", view.Similar)
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withStack(cmd, func(s *stack) error {
				view, err := s.catalog.Search(cmd.Context(), query, page, s.optionalFavorites(cmd.Context()))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				heading := fmt.Sprintf("Results for %q (page %d of %d, %d total)", view.Query, view.Page, view.TotalPages, view.TotalResults)
				printCards(cmd.OutOrStdout(), heading, view.Results)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newCategoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "category <trending|originals|top_rated|genre:ID>",
		Short: "List one catalog row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ok := models.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category %q", args[0])
			}
			return ctx.withStack(cmd, func(s *stack) error {
				view, err := s.catalog.Category(cmd.Context(), category, s.optionalFavorites(cmd.Context()))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, view)
				}
				printCards(cmd.OutOrStdout(), view.Row.Title, view.Row.Cards)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func parseMovieArg(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", value)
	}
	return id, nil
}
