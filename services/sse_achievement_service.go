package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"study-tracker/models"
)

// SSEPollInterval is how often the stream checks for new unlocks.
var SSEPollInterval = 2 * time.Second

// UnlockSender delivers a batch of unseen unlocks to one client. An empty
// batch is a keepalive.
type UnlockSender func(batch []models.Achievement) error

// DeliverUnseen claims every unseen unlock and hands it to send. If send
// fails the client is gone: the claim is released so the rows stay unseen,
// and the send error is returned.
func (s *AchievementService) DeliverUnseen(ctx context.Context, userID string, send UnlockSender) (int, error) {
	claimed, err := s.claimUnseen(ctx, userID)
	if err != nil {
		s.Log.Warn("[STREAM] claim failed", "user_id", userID, "error", err)
		return 0, nil
	}
	if len(claimed) == 0 {
		return 0, send(nil)
	}

	if err := send(claimed); err != nil {
		ids := make([]string, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
		}
		if rerr := s.releaseClaim(ctx, userID, ids); rerr != nil {
			s.Log.Warn("[STREAM] release failed", "user_id", userID, "error", rerr)
		}
		return 0, err
	}
	return len(claimed), nil
}

// StreamUnlocksSSE pushes newly unlocked achievements as `event: achievement`.
func (s *AchievementService) StreamUnlocksSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(SSEPollInterval)
		defer ticker.Stop()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		send := sseSender(w)
		for {
			select {
			case <-ticker.C:
				if _, err := s.DeliverUnseen(context.Background(), userID, send); err != nil {
					s.Log.Debug("[SSE] stream closed", "user_id", userID, "error", err)
					return
				}
			case <-done:
				return
			}
		}
	})
	return nil
}

func sseSender(w *bufio.Writer) UnlockSender {
	return func(batch []models.Achievement) error {
		if len(batch) == 0 {
			// Keepalive comment also detects disconnects.
			w.WriteString(":\n\n")
			return w.Flush()
		}
		for _, a := range batch {
			payload, err := json.Marshal(a)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: achievement\ndata: %s\n\n", payload)
		}
		return w.Flush()
	}
}

// StreamUnlocksWS is the WebSocket flavour of the unlock stream. Each unlock
// is sent as {"event":"achievement","data":{...}}; idle ticks send a ping.
func (s *AchievementService) StreamUnlocksWS(conn *websocket.Conn) {
	defer conn.Close()

	userID, _ := conn.Locals("user_id").(string)
	if userID == "" {
		return
	}

	// The reader only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(SSEPollInterval)
	defer ticker.Stop()

	send := func(batch []models.Achievement) error {
		if len(batch) == 0 {
			return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
		for _, a := range batch {
			if err := conn.WriteJSON(fiber.Map{"event": "achievement", "data": a}); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.DeliverUnseen(context.Background(), userID, send); err != nil {
				s.Log.Debug("[WS] stream closed", "user_id", userID, "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
