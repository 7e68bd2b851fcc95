package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/server/realtime"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

const keepAliveInterval = 15 * time.Second

// eventPayload is the data of snapshot and failure events.
type eventPayload struct {
	Items   []mirror.Record `json:"items"`
	Columns []string        `json:"columns"`
	Message string          `json:"message,omitempty"`
}

// events streams a collection as Server-Sent Events. The registration
// collection is public; every other collection needs a session.
func (s *Server) events(c fiber.Ctx) error {
	collection := c.Params("collection")
	if collection != s.opts.RegistrationCollection && sessionOf(c).Status().State != session.SignedIn {
		return fiber.NewError(http.StatusUnauthorized, "sign in required")
	}

	// The stream outlives the handler; it ends with the server.
	ctx, cancel := context.WithCancel(s.streams)
	sub, err := s.hub.Subscribe(ctx, collection)
	if err != nil {
		cancel()
		s.logger.Warn(c.Context(), "subscribe failed", "collection", collection, "error", err)
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Close()
		s.stream(ctx, w, sub, mirror.New(mirror.ComparatorFor(collection, s.opts.RegistrationCollection)))
	})
}

// stream writes one event per update until the subscription ends or the
// client goes away.
func (s *Server) stream(ctx context.Context, w *bufio.Writer, sub *realtime.Subscription, m *mirror.Mirror) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case snap := <-sub.Updates():
			err = writeView(w, "snapshot", m.Apply(snap))
		case failure := <-sub.Errors():
			err = writeView(w, "failure", m.Fail(failure))
		case <-ticker.C:
			_, err = io.WriteString(w, ": ping\n\n")
		case <-sub.Done():
			return
		case <-ctx.Done():
			return
		}
		if err == nil {
			err = w.Flush()
		}
		if err != nil {
			s.logger.Debug(ctx, "event stream closed", "collection", sub.Collection(), "error", err)
			return
		}
	}
}

func writeView(w io.Writer, event string, v mirror.View) error {
	return writeEvent(w, event, eventPayload{
		Items:   v.Items,
		Columns: mirror.Columns(v.Items),
		Message: v.Message,
	})
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
