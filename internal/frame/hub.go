// Package frame relays widget resize announcements across the frame
// boundary. Embedded widgets report their rendered height and every
// embedding page subscribed to that widget receives the update, so the
// host iframe can be resized without scrollbars.
package frame

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// ResizeMessage is the cross-frame payload. The JSON keys match what the
// embedding snippet listens for.
type ResizeMessage struct {
	WidgetID string `json:"widgetId"`
	Height   int    `json:"height"`
}

type subscriber struct {
	widgetID string
	ch       chan ResizeMessage
}

// Hub fans resize messages out to websocket subscribers, keyed by widget
// public ID. Delivery is best-effort: slow subscribers drop messages
// rather than block the sender.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[*subscriber]struct{}{}}
}

// Announce implements the resize fan-out for forms rendered server-side.
func (h *Hub) Announce(widgetID string, height int) {
	h.Broadcast(ResizeMessage{WidgetID: widgetID, Height: height})
}

// Broadcast delivers msg to every subscriber of msg.WidgetID.
func (h *Hub) Broadcast(msg ResizeMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if s.widgetID != msg.WidgetID {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			// subscriber is not keeping up, drop
		}
	}
}

func (h *Hub) subscribe(widgetID string) *subscriber {
	s := &subscriber{widgetID: widgetID, ch: make(chan ResizeMessage, 8)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// SubscriberCount reports how many connections listen for widgetID.
func (h *Hub) SubscriberCount(widgetID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for s := range h.subs {
		if s.widgetID == widgetID {
			n++
		}
	}
	return n
}

// Routes mounts the subscribe and report endpoints plus the embed helper
// script the snippet loads on the host page.
func (h *Hub) Routes(r chi.Router) {
	r.Get("/frame/{widgetID}", h.handleSubscribe)
	r.Post("/frame/{widgetID}/resize", h.handleReport)
	r.Get("/static/resize.js", handleResizeScript)
}

// resizeScript runs on the embedding page. It locates the widget iframe,
// subscribes to the relay and applies height updates as they arrive. The
// relay origin is derived from the script's own src so the snippet works
// from any host page.
const resizeScript = `(function () {
  var script = document.currentScript;
  if (!script) return;
  var widgetId = script.getAttribute("data-widget-id");
  if (!widgetId) return;

  var frame = null;
  var frames = document.getElementsByTagName("iframe");
  for (var i = 0; i < frames.length; i++) {
    if (frames[i].src.indexOf(widgetId) !== -1) {
      frame = frames[i];
      break;
    }
  }
  if (!frame) return;

  var base = script.src
    .replace(/\/static\/resize\.js.*$/, "")
    .replace(/^http/, "ws");
  var ws = new WebSocket(base + "/frame/" + widgetId);
  ws.onmessage = function (ev) {
    try {
      var msg = JSON.parse(ev.data);
      if (msg.widgetId === widgetId && msg.height > 0) {
        frame.style.height = msg.height + "px";
      }
    } catch (e) {}
  };
})();
`

func handleResizeScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(resizeScript))
}

// handleSubscribe upgrades the connection and streams resize messages
// for one widget until the client goes away.
func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")
	if widgetID == "" {
		http.Error(w, "missing widget id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Widgets are embedded on arbitrary customer sites.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("frame: accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := h.subscribe(widgetID)
	defer h.unsubscribe(sub)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.ch:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// handleReport accepts a height report from an embedded widget over
// plain HTTP and rebroadcasts it to subscribers.
func (h *Hub) handleReport(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetID")

	var msg ResizeMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	msg.WidgetID = widgetID
	if msg.Height <= 0 {
		http.Error(w, "height must be positive", http.StatusUnprocessableEntity)
		return
	}

	h.Broadcast(msg)
	w.WriteHeader(http.StatusNoContent)
}
