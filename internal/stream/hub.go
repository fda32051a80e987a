package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// sendBuffer bounds each client's outbound queue. Snapshot frames are
// latest-value anyway, so a full queue just drops the frame.
const sendBuffer = 16

// client pairs a connection with its outbound queue. writeLoop is the only
// goroutine allowed to write on the connection; everything else enqueues.
// done is closed by the hub when the client is gone, and every send on the
// queue selects against it, so nothing ever blocks on a dead client.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// enqueue hands a message to the client's writer without blocking. It
// reports false when the queue is full and the message was dropped.
func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Closing unblocks the read loop, which deregisters the
				// client; keep draining until the hub signals done so
				// blocking senders are never stranded.
				c.conn.Close()
				c.drain()
				return
			}
		case <-c.done:
			c.conn.Close()
			return
		}
	}
}

func (c *client) drain() {
	for {
		select {
		case <-c.send:
		case <-c.done:
			return
		}
	}
}

// hub fans frames out to every connected websocket client. Registration,
// removal and broadcast all go through the run loop, so the clients map is
// never touched concurrently.
type hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	clients   map[*client]bool
	register  chan *client
	remove    chan *client
	broadcast chan []byte
	done      chan struct{}
}

func newHub(log zerolog.Logger) *hub {
	h := &hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*client]bool),
		register:  make(chan *client),
		remove:    make(chan *client),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *hub) run() {
	closing := false
	for {
		select {
		case c := <-h.register:
			if closing {
				close(c.done)
				continue
			}
			h.clients[c] = true
		case c := <-h.remove:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.done)
			}
			if closing && len(h.clients) == 0 {
				return
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if !c.enqueue(msg) {
					h.log.Debug().Msg("client behind, frame dropped")
				}
			}
		case <-h.done:
			// Force every read loop off its connection; each one then
			// deregisters through remove and the loop drains to empty.
			closing = true
			h.done = nil
			if len(h.clients) == 0 {
				return
			}
			for c := range h.clients {
				c.conn.Close()
			}
		}
	}
}

func (h *hub) close() { close(h.done) }
