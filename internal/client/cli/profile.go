package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (a *App) Me(ctx context.Context) error {
	u, err := a.authService.CurrentUser(ctx)
	if err != nil {
		a.syncUser(ctx)
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Username\t%s\n", u.Username)
	fmt.Fprintf(tw, "Full name\t%s\n", u.FullName)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Avatar\t%s\n", u.Avatar)
	if u.CoverImage != "" {
		fmt.Fprintf(tw, "Cover\t%s\n", u.CoverImage)
	}
	return tw.Flush()
}

func (a *App) Channel(ctx context.Context, username string) error {
	p, err := a.authService.ChannelProfile(ctx, username)
	if err != nil {
		a.syncUser(ctx)
		return err
	}

	subscribed := "no"
	if p.IsSubscribed {
		subscribed = "yes"
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\t%s (%s)\n", p.Username, p.FullName)
	fmt.Fprintf(tw, "Subscribers\t%d\n", p.SubscribersCount)
	fmt.Fprintf(tw, "Subscribed to\t%d\n", p.ChannelsSubscribedToCount)
	fmt.Fprintf(tw, "You subscribe\t%s\n", subscribed)
	return tw.Flush()
}

func (a *App) History(ctx context.Context) error {
	videos, err := a.authService.WatchHistory(ctx)
	if err != nil {
		a.syncUser(ctx)
		return err
	}

	if len(videos) == 0 {
		fmt.Fprintln(a.out, "No videos watched yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tOWNER\tVIEWS\tID")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", v.Title, v.Owner.Username, v.Views, v.ID)
	}
	return tw.Flush()
}
