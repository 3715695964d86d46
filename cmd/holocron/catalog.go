package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/spf13/cobra"
)

const commandTimeout = time.Minute

// parseType resolves a collection argument, suggesting the closest match
func parseType(arg string) (domain.EntityType, error) {
	t, err := domain.ParseEntityType(arg)
	if err == nil {
		return t, nil
	}

	names := make([]string, len(domain.EntityTypes))
	for i, et := range domain.EntityTypes {
		names[i] = string(et)
	}
	if suggestions := browse.RankNames(arg, names); len(suggestions) > 0 {
		return "", fmt.Errorf("%w (did you mean %q?)", err, suggestions[0])
	}
	return "", fmt.Errorf("%w (one of: %s)", err, strings.Join(names, ", "))
}

// browseService returns the session's browse service or a sign-in hint
func (c *cli) browseService() (*browse.Service, error) {
	svc, err := c.app.Browse()
	if errors.Is(err, domain.ErrNotAuthenticated) {
		return nil, fmt.Errorf("%w: run `holocron login` first", err)
	}
	return svc, err
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

// ListCommand prints one page of a collection
func ListCommand(c *cli) *cobra.Command {
	var (
		page   int
		search string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List a collection (people, planets, films, species, vehicles, starships)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			svc, err := c.browseService()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			view, err := svc.Page(ctx, browse.PageRequest{Type: t, Page: page, Search: search, Filter: filter})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return printPage(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number (ignored with --search)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search the archive by name or title")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "fuzzy filter the returned items")
	return cmd
}

// ShowCommand prints a record with its relations resolved
func ShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection> <id>",
		Short: "Show a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			svc, err := c.browseService()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			view, err := svc.Detail(ctx, t, args[1])
			if err != nil {
				return err
			}
			svc.MarkViewed(view)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return printDetail(cmd.OutOrStdout(), view)
		},
	}
}

// FavoriteCommand toggles a record's favorite state
func FavoriteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <collection> <id>",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			svc, err := c.browseService()
			if err != nil {
				return err
			}

			id := args[1]
			name := ""
			if svc.Views().IsFavorite(t, id) {
				for _, f := range svc.Favorites("") {
					if f.Type == t && f.ID == id {
						name = f.DisplayName
						break
					}
				}
			} else {
				// Adding needs the display name
				ctx, cancel := commandContext(cmd)
				defer cancel()
				d, err := c.app.Client.GetEntity(ctx, t, id)
				if err != nil {
					return err
				}
				name = d.DisplayName
			}

			if svc.ToggleFavorite(t, id, name) {
				fmt.Fprintf(cmd.OutOrStdout(), "★ Added %s to favorites\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", name)
			}
			return nil
		},
	}
}

// FavoritesCommand lists favorites
func FavoritesCommand(c *cli) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.browseService()
			if err != nil {
				return err
			}
			favs := svc.Favorites(filter)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), favs)
			}
			return printFavorites(cmd.OutOrStdout(), favs)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "filter by name or collection")
	return cmd
}

// RecentCommand lists recently viewed records
func RecentCommand(c *cli) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently viewed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.browseService()
			if err != nil {
				return err
			}
			recent := svc.Recent(filter)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), recent)
			}
			return printRecent(cmd.OutOrStdout(), recent)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "filter by name or collection")
	return cmd
}

// SortCommand advances a collection's sort column
func SortCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sort <collection> <name|id>",
		Short: "Toggle sorting: unsorted, ascending, descending",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			column := strings.ToLower(args[1])
			if column != domain.SortKeyName && column != domain.SortKeyID {
				return fmt.Errorf("unknown sort column %q (name or id)", args[1])
			}
			svc, err := c.browseService()
			if err != nil {
				return err
			}

			pref := svc.Views().ToggleSort(t, column)
			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), pref)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t, describeSort(pref))
			return nil
		},
	}
}

// ViewCommand sets a collection's view mode
func ViewCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "view <collection> <table|grid>",
		Short: "Set how a collection is displayed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseType(args[0])
			if err != nil {
				return err
			}
			mode := domain.ViewMode(strings.ToLower(args[1]))
			if !mode.Valid() {
				return fmt.Errorf("unknown view mode %q (table or grid)", args[1])
			}
			svc, err := c.browseService()
			if err != nil {
				return err
			}

			pref := svc.Views().SetViewMode(t, mode)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s view\n", t, pref.ViewMode)
			return nil
		},
	}
}

func describeSort(pref domain.ViewPreference) string {
	if !pref.Sorted() {
		return "unsorted"
	}
	dir := "ascending"
	if pref.SortDirection == domain.SortDesc {
		dir = "descending"
	}
	return "by " + pref.SortKey + " " + dir
}

func pageSummary(view browse.PageView) string {
	res := view.Result
	if res.Shape == domain.ShapeSearch {
		return fmt.Sprintf("%d results for %q", res.TotalRecords, view.Request.Search)
	}
	return "page " + strconv.Itoa(res.Page) + " of " + strconv.Itoa(max(res.TotalPages, 1)) +
		", " + strconv.Itoa(res.TotalRecords) + " records"
}
