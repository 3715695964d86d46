package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printPage(w io.Writer, view browse.PageView) error {
	fmt.Fprintf(w, "%s: %s (%s)\n\n", view.Request.Type.Label(), pageSummary(view), describeSort(view.Preference))
	if len(view.Items) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, it := range view.Items {
		fmt.Fprintf(tw, "%s\t%s\n", it.ID, it.DisplayName)
	}
	return tw.Flush()
}

func printDetail(w io.Writer, view *browse.DetailView) error {
	d := view.Detail
	star := ""
	if view.Favorite {
		star = "★ "
	}
	fmt.Fprintf(w, "%s%s (%s)\n", star, d.DisplayName, d.Reference().Key())
	if d.Description != "" {
		fmt.Fprintln(w, d.Description)
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	for _, k := range d.AttributeKeys() {
		fmt.Fprintf(tw, "%s\t%s\n", domain.HumanizeKey(k), d.Attributes[k])
	}
	for _, rel := range view.Relations {
		names := make([]string, len(rel.Names))
		for i, n := range rel.Names {
			names[i] = n.Name
		}
		value := strings.Join(names, ", ")
		if value == "" {
			value = "none"
		}
		fmt.Fprintf(tw, "%s\t%s\n", rel.Label, value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if view.Omitted > 0 {
		fmt.Fprintf(w, "\n%d related records could not be loaded\n", view.Omitted)
	}
	return nil
}

func printFavorites(w io.Writer, favs []domain.Favorite) error {
	if len(favs) == 0 {
		fmt.Fprintln(w, "No favorites")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "REF\tNAME\tSAVED")
	for _, f := range favs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Reference().Key(), f.DisplayName, f.SavedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printRecent(w io.Writer, recent []domain.RecentView) error {
	if len(recent) == 0 {
		fmt.Fprintln(w, "Nothing viewed yet")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "REF\tNAME\tVIEWED")
	for _, r := range recent {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Reference().Key(), r.DisplayName, r.ViewedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
