package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isdelr/grandline-guide/internal/client/tui"
	"github.com/isdelr/grandline-guide/internal/listing"
)

func newBrowseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive country browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBrowse(cmd.Context())
		},
	}
}

func (a *App) runBrowse(ctx context.Context) error {
	sess, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	return tui.Run(ctx, a.directory, a.api, sess)
}

func newCountriesCommand(app *App) *cobra.Command {
	var region string
	var page int

	cmd := &cobra.Command{
		Use:   "countries [search]",
		Short: "Print one page of countries",
		Long: "Looks countries up the same way the browser does: up to three letters are a country code, " +
			"longer text is a name, otherwise the region filter applies.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			search := ""
			if len(args) == 1 {
				search = args[0]
			}
			return app.runCountries(cmd.Context(), search, region, page)
		},
	}
	cmd.Flags().StringVar(&region, "region", listing.RegionAll, "region filter ("+strings.Join(listing.Regions, ", ")+")")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (a *App) runCountries(ctx context.Context, search, region string, page int) error {
	strategy := listing.ChooseStrategy(search, region)
	items, err := listing.Execute(ctx, a.directory, strategy)
	if err != nil {
		// Same policy as the browser: a failed lookup is an empty list.
		items = nil
	}

	p := listing.Paginate(items, page, listing.PageSize)
	if len(p.Items) == 0 {
		a.printf("No countries found.\n")
	}
	for _, c := range p.Items {
		a.printf("%-24s %15s  %-9s %-18s %s\n", c.Name, c.Population.String(), c.Region, c.Capital, c.Languages)
	}
	a.printf("Page %d of %d (%d countries)\n", p.Number, p.TotalPages, len(items))
	return nil
}

func newGuideCommand(app *App) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "guide <country>",
		Short: "Print the AI travel guide for a country",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runGuide(cmd.Context(), strings.Join(args, " "), stream)
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the guide as it is generated")
	return cmd
}

func (a *App) runGuide(ctx context.Context, country string, stream bool) error {
	if stream {
		err := a.api.StreamGuide(ctx, country, func(chunk string) {
			a.printf("%s", chunk)
		})
		a.printf("\n")
		if err != nil {
			return fmt.Errorf("%s: %w", guideFailure, err)
		}
		return nil
	}

	text, err := a.api.CountryGuide(ctx, country)
	if err != nil {
		return fmt.Errorf("%s: %w", guideFailure, err)
	}
	a.printf("%s\n", text)
	return nil
}

const guideFailure = "Sorry! Could not load country guide."

func newEventsCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent activity on your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			events, err := app.api.Events(cmd.Context(), sess.Token, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				app.printf("No recent activity.\n")
			}
			for _, e := range events {
				app.printf("%s  %-5s  %-20s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show")
	return cmd
}
