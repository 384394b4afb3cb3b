package websocket

import (
	fws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RequireUpgrade rejects plain HTTP requests on a websocket route with 426 Upgrade Required.
func RequireUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if fws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"error": "websocket upgrade required",
		})
	}
}

// Serve upgrades the connection and streams every event of the match named by the ":id"
// route parameter until the client disconnects. Incoming messages are read and discarded;
// reading is what notices the close.
//
// The writer goroutine owns the socket's write side. When the hub closes Send (slow client
// dropped, hub stopped) the writer closes the connection, which ends the read loop. The
// handler waits for the writer before returning, since fws reuses the connection after.
func Serve(h *Hub) fiber.Handler {
	return fws.New(func(conn *fws.Conn) {
		client := NewClient(conn.Params("id"))
		h.Register(client)

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			defer conn.Close()
			for msg := range client.Send {
				if err := conn.WriteMessage(fws.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		// Unregister closes Send (or the hub already did), so the writer always exits.
		h.Unregister(client)
		<-writerDone
	})
}
