package api

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// feedLimiter tracks concurrent feed connections per client IP.
type feedLimiter struct {
	mu          sync.Mutex
	connections map[string]int
	maxPerIP    int
}

func newFeedLimiter(maxPerIP int) *feedLimiter {
	if maxPerIP <= 0 {
		maxPerIP = 4
	}
	return &feedLimiter{
		connections: make(map[string]int),
		maxPerIP:    maxPerIP,
	}
}

// acquire attempts to register a new connection for the given IP.
// Returns false if the IP limit has been reached.
func (l *feedLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connections[ip] >= l.maxPerIP {
		return false
	}
	l.connections[ip]++
	return true
}

// release decrements the connection count for the given IP.
func (l *feedLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.connections[ip]--
	if l.connections[ip] <= 0 {
		delete(l.connections, ip)
	}
}

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The feed is read-only tracking data; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const feedWriteTimeout = 10 * time.Second

// handleFeed upgrades the connection and mirrors the TSV feed to the
// client. Each client gets a token-bucket line budget; lines over budget
// are dropped for that client only.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if !s.limiter.acquire(ip) {
		http.Error(w, "too many feed connections", http.StatusTooManyRequests)
		return
	}
	defer s.limiter.release(ip)

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	defer conn.Close()

	lineBudget := rate.Limit(s.cfg.FeedLinesPerSecond)
	if lineBudget <= 0 {
		lineBudget = rate.Inf
	}
	budget := rate.NewLimiter(lineBudget, int(s.cfg.FeedLinesPerSecond)+1)

	lines := s.hub.Subscribe()
	defer s.hub.Unsubscribe(lines)

	// Consume control frames; a read error means the client went away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !budget.Allow() {
				// over budget; drop this line for this client
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Feed client %s write error: %v", ip, err)
				}
				return
			}
		}
	}
}
