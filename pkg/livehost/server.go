package livehost

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/liveguard/pkg/layout"
)

// Server exposes a Host over HTTP: GET / serves the rendered page, /live
// carries interaction events over a WebSocket, and /metrics serves
// Prometheus metrics.
type Server struct {
	host     *Host
	page     *layout.Node
	title    string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	eventsTotal *prometheus.CounterVec
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	title    string
	logger   *slog.Logger
	registry prometheus.Registerer
}

// WithTitle sets the page title. Default: "liveguard".
func WithTitle(title string) ServerOption {
	return func(c *serverConfig) {
		c.title = title
	}
}

// WithServerLogger sets the structured logger. Default: slog.Default().
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// WithServerRegistry sets the Prometheus registry.
// Default: prometheus.DefaultRegisterer.
func WithServerRegistry(registry prometheus.Registerer) ServerOption {
	return func(c *serverConfig) {
		c.registry = registry
	}
}

// NewServer wraps a started host and its page layout.
func NewServer(host *Host, page *layout.Node, opts ...ServerOption) *Server {
	cfg := &serverConfig{
		title:    "liveguard",
		logger:   slog.Default(),
		registry: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.registry)
	return &Server{
		host:   host,
		page:   page,
		title:  cfg.title,
		logger: cfg.logger,
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liveguard",
			Subsystem: "livehost",
			Name:      "events_total",
			Help:      "Interaction events processed over the live socket",
		}, []string{"status"}),
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.servePage)
	r.Get("/live", s.serveLive)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// event is one client interaction: a property change on a component.
type event struct {
	ID    string `json:"id"`
	Prop  string `json:"prop"`
	Value any    `json:"value"`
}

// update is the server's reply: the re-rendered page body.
type update struct {
	HTML string `json:"html"`
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, layout.Render(&layout.Node{Tag: "title", Children: []*layout.Node{layout.Text(s.title)}}), s.renderBody())
}

func (s *Server) serveLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		if err := s.host.SetProp(r.Context(), ev.ID, ev.Prop, ev.Value); err != nil {
			s.eventsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("event dispatch failed", "id", ev.ID, "prop", ev.Prop, "error", err)
		} else {
			s.eventsTotal.WithLabelValues("ok").Inc()
		}

		if err := conn.WriteJSON(update{HTML: s.renderBody()}); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// renderBody renders the page layout with live property values merged in:
// a "children" property replaces a node's children, a "value" property
// lands as the value attribute.
func (s *Server) renderBody() string {
	merged := s.page.Clone()
	merged.Walk(func(n *layout.Node) bool {
		if n.ID == "" {
			return true
		}
		// The live node is cloned before splicing so merges never touch
		// host-owned layout, and the walk continues into the clone to pick
		// up nested live regions.
		if v := s.host.Prop(n.ID, "children"); v != nil {
			if child, ok := v.(*layout.Node); ok && child != nil {
				n.Children = []*layout.Node{child.Clone()}
			}
		}
		if v := s.host.Prop(n.ID, "value"); v != nil {
			n.With("value", fmt.Sprint(v))
		}
		return true
	})
	return layout.Render(merged)
}

// pageShell is the static page scaffolding: the rendered body plus a thin
// client that forwards interactions and swaps in re-rendered HTML.
const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
%s
</head>
<body>
<div id="app">%s</div>
<script>
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/live");
  var clicks = {};
  ws.onmessage = function (msg) {
    document.getElementById("app").innerHTML = JSON.parse(msg.data).html;
  };
  document.addEventListener("click", function (e) {
    var id = e.target.id;
    if (!id || e.target.tagName !== "BUTTON") return;
    clicks[id] = (clicks[id] || 0) + 1;
    ws.send(JSON.stringify({id: id, prop: "n_clicks", value: clicks[id]}));
  });
  document.addEventListener("change", function (e) {
    var id = e.target.id;
    if (!id) return;
    ws.send(JSON.stringify({id: id, prop: "value", value: e.target.value}));
  });
})();
</script>
</body>
</html>
`
