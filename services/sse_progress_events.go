package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SSEPollInterval is how often the stream looks for new events.
var SSEPollInterval = 2 * time.Second

// StreamProgressEventsSSE streams new progress events (rank-ups, rewards) for
// the authenticated pilot.
func (s *ProgressEventService) StreamProgressEventsSSE(c *fiber.Ctx) error {
	login, _ := c.Locals("user_id").(string)
	if login == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// The request context is recycled once the handler returns, so the
	// stream writer works on its own.
	ctx := context.Background()
	done := c.Context().Done()
	log := s.log.With("login", login)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(SSEPollInterval)
		defer ticker.Stop()

		cursor, err := s.Latest(ctx, login)
		if err != nil {
			log.Warn("sse cursor init failed", "error", err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				events, err := s.Since(ctx, login, cursor)
				if err != nil {
					log.Warn("sse query failed", "error", err)
					continue
				}
				if len(events) == 0 {
					w.WriteString(":\n\n")
				}
				for _, ev := range events {
					payload, _ := json.Marshal(ev)
					fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Kind, payload)
					cursor = ev.Seq
				}
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-done:
				return
			}
		}
	})

	return nil
}
