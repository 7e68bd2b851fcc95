package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/dmitrijs2005/sheetsync/internal/guard"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
)

// interruptContext is a test seam for signal.NotifyContext.
var interruptContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Watch prints a live table of a collection until Ctrl-C. Collections other
// than registrations need a signed-in session; signing out elsewhere ends the
// watch.
func (a *App) Watch(ctx context.Context, args []string) error {
	collection := a.config.Collection
	if len(args) > 0 {
		collection = args[0]
	}
	requireAuth := collection != a.config.RegistrationCollection

	ctx, cancel := interruptContext(ctx)
	defer cancel()

	allowed := true
	stop := guard.Watch(ctx, a.authService.Session(), requireAuth, func(d guard.Decision) {
		if d.Action == guard.Redirect && requireAuth {
			allowed = false
			cancel()
		}
	})
	defer stop()

	if !allowed {
		a.printf("Sign in first: login [id-token]\n")
		return nil
	}

	a.printf("Watching %s, press Ctrl-C to stop\n", collection)
	err := a.dashboard.Watch(ctx, collection, func(v mirror.View) {
		renderView(a.out, collection, v)
	})
	if err != nil {
		a.logger.Warn(ctx, "watch ended", "collection", collection, "error", err)
	}
	return err
}

func renderView(w io.Writer, collection string, v mirror.View) {
	switch v.State {
	case mirror.Loading:
		fmt.Fprintf(w, "Loading %s...\n", collection)
		return
	case mirror.Failed:
		fmt.Fprintf(w, "%s\n", v.Message)
		return
	}

	fmt.Fprintf(w, "\n%s: %d record(s)\n", collection, len(v.Items))
	if len(v.Items) == 0 {
		return
	}

	cols := mirror.Columns(v.Items)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "id")
	for _, c := range cols {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)
	for _, r := range v.Items {
		fmt.Fprint(tw, r.ID)
		for _, c := range cols {
			fmt.Fprintf(tw, "\t%s", mirror.Format(r.Fields[c]))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
