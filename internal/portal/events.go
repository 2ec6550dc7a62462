package portal

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
)

// event is one message pushed to connected pages
type event struct {
	Event string `json:"event"`
}

// upgrader accepts any origin: the portal only exists on the isolated
// setup network
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// hub tracks connected event sockets
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// broadcast sends an event to every connected page. Write failures just
// drop that client; its read pump will clean up.
func (h *hub) broadcast(ev event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			logging.Debug("Event write failed", zap.Error(err))
		}
	}
}

// closeAll disconnects every client, for portal shutdown
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// handleEvents upgrades the connection and holds it open until the page
// goes away or the portal shuts down
func (p *Portal) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	p.hub.add(conn)
	defer func() {
		p.hub.remove(conn)
		conn.Close()
	}()

	// Read pump: the page never sends anything meaningful, but reading
	// is how gorilla surfaces the close frame
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
