package ws

import (
	"net/http"
)

// WSHandler subscribes a client to transcript events for one room.
// Recognition itself is started over HTTP; the socket only receives.
func WSHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "ws upgrade failed", http.StatusBadRequest)
			return
		}

		roomID := r.URL.Query().Get("roomID")
		if roomID == "" {
			roomID = "default"
		}

		hub.Register(roomID, conn)
		defer hub.Unregister(roomID, conn)

		hub.SendToRoom(roomID, []byte(`{"status":"subscribed"}`))

		// держим соединение, пока клиент не отключится
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
