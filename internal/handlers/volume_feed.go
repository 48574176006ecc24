package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/stockdesk/backend/internal/models"
	"github.com/stockdesk/backend/internal/store"
)

// VolumeUpdate is one net volume push on the feed
type VolumeUpdate struct {
	Records   []models.NetVolumeRecord `json:"records"`
	Timestamp time.Time                `json:"timestamp"`
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (for development and demo)
	},
}

// VolumeFeed handles WebSocket connections pushing the most recently
// written net volume records; a push only goes out when something
// changed since the last one
func (a *API) VolumeFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	log.Println("Client connected to volume feed")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var lastSeen time.Time
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			records, err := a.store.Latest(c.Request.Context(), store.KindNetVolumes, 20)
			if err != nil {
				log.Println("Volume feed query error:", err)
				continue
			}
			if len(records) == 0 || !records[0].UpdatedAt.After(lastSeen) {
				continue
			}
			lastSeen = records[0].UpdatedAt

			update := VolumeUpdate{Timestamp: time.Now()}
			for _, rec := range records {
				var nv models.NetVolumeRecord
				if err := rec.Decode(&nv); err != nil {
					continue
				}
				update.Records = append(update.Records, nv)
			}
			if err := conn.WriteJSON(update); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
			log.Printf("Sent volume update with %d records", len(update.Records))
		}
	}
}
