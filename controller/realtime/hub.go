package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"dunzo/controller"
	"dunzo/middleware"
	"dunzo/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type client struct {
	conn   *websocket.Conn
	userID int
	mu     sync.Mutex
}

func (cl *client) write(v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err := cl.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return cl.conn.WriteJSON(v)
}

func (cl *client) ping() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err := cl.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return cl.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub keeps the open websocket connections of each project and tells them
// to refresh when the project changes.
type Hub struct {
	mu       sync.RWMutex
	projects map[int]map[*client]bool
	upgrader websocket.Upgrader
}

// NewHub accepts upgrades from the given origins. An empty list allows any
// origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{projects: make(map[int]map[*client]bool)}
	h.upgrader.CheckOrigin = func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	}
	return h
}

func (h *Hub) add(projectID int, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.projects[projectID] == nil {
		h.projects[projectID] = make(map[*client]bool)
	}
	h.projects[projectID][cl] = true
}

func (h *Hub) remove(projectID int, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.projects[projectID]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.projects, projectID)
		}
	}
}

// Clients reports how many connections are open for a project.
func (h *Hub) Clients(projectID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}

func (h *Hub) BroadcastRefresh(projectID int) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.projects[projectID]))
	for cl := range h.projects[projectID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		err := cl.write(gin.H{
			"type":       "refresh",
			"project_id": projectID,
		})
		if err != nil {
			log.Printf("Failed to broadcast refresh to client: %v", err)
			h.remove(projectID, cl)
			cl.conn.Close()
		}
	}
}

// Disconnect closes every connection the user holds on the project. It is
// called once the user's membership is gone.
func (h *Hub) Disconnect(projectID, userID int) {
	h.mu.Lock()
	var dropped []*client
	for cl := range h.projects[projectID] {
		if cl.userID == userID {
			dropped = append(dropped, cl)
			delete(h.projects[projectID], cl)
		}
	}
	if len(h.projects[projectID]) == 0 {
		delete(h.projects, projectID)
	}
	h.mu.Unlock()

	for _, cl := range dropped {
		if err := cl.write(gin.H{"type": "removed", "project_id": projectID}); err != nil {
			log.Printf("Failed to notify removed client: %v", err)
		}
		cl.conn.Close()
	}
}

func RealtimeController(router *gin.Engine, planner *services.Planner, hub *Hub) {
	router.GET("/ws/:project_id", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		WebSocket(c, planner, hub)
	})
}

// WebSocket streams refresh events of one project to a member.
func WebSocket(c *gin.Context, planner *services.Planner, hub *Hub) {
	projectID, ok := controller.ParamID(c, "project_id")
	if !ok {
		return
	}
	userID := controller.Requester(c)
	member, err := planner.IsMember(c.Request.Context(), projectID, userID)
	if err != nil {
		controller.Fail(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "You are not a member of this project"})
		return
	}

	conn, err := hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	cl := &client{conn: conn, userID: userID}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	hub.add(projectID, cl)
	defer func() {
		hub.remove(projectID, cl)
		conn.Close()
	}()

	if err := cl.write(gin.H{"type": "connected", "project_id": projectID}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := cl.ping(); err != nil {
					return
				}
			}
		}
	}()

	// Clients only listen; reading keeps the deadline and close handshake
	// moving.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for project %d: %v", projectID, err)
			}
			return
		}
	}
}
