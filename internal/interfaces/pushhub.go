package interfaces

import (
	"net/http"

	"github.com/bobmcallan/trivia/internal/models"
)

// PushHub fans job lifecycle events out to a recipient's live streams.
// Publish and Broadcast are best-effort: a failed send silently drops the
// offending stream rather than blocking the caller.
type PushHub interface {
	Publish(recipientID string, event models.JobEvent)
	Broadcast(event models.JobEvent)

	// ServeWS upgrades the request to a WebSocket and registers the
	// connection under recipientID.
	ServeWS(w http.ResponseWriter, r *http.Request, recipientID string)

	// StreamCount returns the number of live streams across all recipients.
	StreamCount() int

	Run()
	Stop()
}
