package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
)

const keepAliveInterval = 30 * time.Second

// SSE streams broker events to the client as server-sent events.
// Comment lines are written periodically so dead connections are
// detected and their broker subscriptions released.
func (h *Handlers) SSE(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	client := h.broker.Subscribe()
	reader, writer := io.Pipe()

	go func() {
		defer func() {
			h.broker.Unsubscribe(client)
			writer.Close()
		}()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-client:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(writer, "data: %s\n\n", data); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprintf(writer, ": keep-alive\n\n"); err != nil {
					return
				}
			}
		}
	}()

	return c.SendStream(reader)
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
