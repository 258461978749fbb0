package websocket

import (
	"time"

	"ai-conversations-be/internal/pkg/logger"
	"ai-conversations-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// closeCommand is the only text frame the stream accepts; everything else
	// on the wire is binary PCM.
	closeCommand = "close"
)

// ServeStream pumps one device's audio stream into the ingestion service.
// Binary frames carry little-endian PCM16 samples; a "close" text frame ends
// the current conversation without dropping the connection. When the socket
// closes for any reason the device is reported as disconnected, which closes
// any open conversation within the configured grace period.
func ServeStream(conn *websocket.Conn, clientId string, ingest service.IIngestService, log logger.ILogger) {
	defer func() {
		ingest.Disconnect(clientId)
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	log.Info("stream", "device connected", map[string]interface{}{"client_id": clientId})

	var seq uint64
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("stream", "unexpected stream close", map[string]interface{}{
					"client_id": clientId,
					"error":     err.Error(),
				})
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.BinaryMessage:
			seq++
			if err := ingest.IngestFrame(clientId, seq, payload); err != nil {
				log.Warn("stream", "dropped malformed frame", map[string]interface{}{
					"client_id": clientId,
					"seq":       seq,
					"error":     err.Error(),
				})
			}
		case websocket.TextMessage:
			if string(payload) == closeCommand {
				ingest.CloseConversation(clientId)
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.TextMessage, []byte("closed"))
			}
		}
	}
}
