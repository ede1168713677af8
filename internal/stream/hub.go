// Package stream fans published visualization topics out to connected
// viewers over gRPC server streams.
package stream

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/timeutil"
)

var logf = monitoring.Prefixed("Stream")

// Config holds configuration for the stream hub.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50061")
	ListenAddr string

	// MaxClients is the maximum number of concurrent subscribers. Zero means
	// no limit.
	MaxClients int

	// QueueSize is the depth of the shared publish queue.
	QueueSize int

	// ClientBuffer is the per-subscriber queue depth. A subscriber whose
	// queue is full misses messages rather than slowing the hub.
	ClientBuffer int

	// StatsInterval is how often throughput is logged.
	StatsInterval time.Duration

	// Topics are advertised by ListTopics before anything is published.
	Topics []string

	// Clock stamps messages. Defaults to the real clock.
	Clock timeutil.Clock
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "localhost:50061",
		MaxClients:    8,
		QueueSize:     256,
		ClientBuffer:  64,
		StatsInterval: 5 * time.Second,
	}
}

// Hub owns the gRPC server and distributes published messages.
type Hub struct {
	config   Config
	clock    timeutil.Clock
	server   *grpc.Server
	listener net.Listener

	frameChan chan *frame
	clients   map[string]*client
	clientsMu sync.RWMutex

	topicsMu sync.Mutex
	topics   map[string]uint64

	frameCount     atomic.Uint64
	clientCount    atomic.Int32
	droppedFrames  atomic.Uint64
	encodeErrors   atomic.Uint64
	lastStatsTime  time.Time
	lastFrameCount uint64
	lastStatsMu    sync.Mutex

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// frame is a published message waiting to be fanned out.
type frame struct {
	topic   string
	seq     uint64
	stampNs int64
	payload any
}

// client is one connected subscriber.
type client struct {
	id      string
	topics  map[string]bool // nil means every topic
	frameCh chan *structpb.Struct
	doneCh  chan struct{}
}

func (c *client) wants(topic string) bool {
	return c.topics == nil || c.topics[topic]
}

// NewHub creates a hub. It does nothing until Start or StartOn.
func NewHub(cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = def.ClientBuffer
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = def.StatsInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	topics := make(map[string]uint64, len(cfg.Topics))
	for _, t := range cfg.Topics {
		topics[t] = 0
	}
	return &Hub{
		config:    cfg,
		clock:     clock,
		frameChan: make(chan *frame, cfg.QueueSize),
		clients:   make(map[string]*client),
		topics:    topics,
		stopCh:    make(chan struct{}),
	}
}

// Start listens on the configured address and serves subscribers.
func (h *Hub) Start() error {
	if h.running.Load() {
		return fmt.Errorf("hub already running")
	}
	logf("Attempting to bind to %s...", h.config.ListenAddr)
	lis, err := net.Listen("tcp", h.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return h.StartOn(lis)
}

// StartOn serves subscribers on an existing listener.
func (h *Hub) StartOn(lis net.Listener) error {
	if !h.running.CompareAndSwap(false, true) {
		return fmt.Errorf("hub already running")
	}
	h.listener = lis

	// Marker arrays for a dense map can exceed the 4MB default.
	const maxMsgSize = 16 * 1024 * 1024
	h.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	RegisterService(h.server, NewServer(h))

	h.wg.Add(2)
	go h.broadcastLoop()
	go func() {
		defer h.wg.Done()
		logf("gRPC server listening on %s", lis.Addr())
		if err := h.server.Serve(lis); err != nil && h.running.Load() {
			logf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop ends every subscription and shuts the server down.
func (h *Hub) Stop() {
	if !h.running.CompareAndSwap(true, false) {
		return
	}
	close(h.stopCh)

	if h.server != nil {
		h.server.GracefulStop()
	}
	if h.listener != nil {
		h.listener.Close()
	}
	h.wg.Wait()
	logf("gRPC server stopped after %s messages", humanize.Comma(int64(h.frameCount.Load())))
}

// Addr returns the listening address, or nil before Start.
func (h *Hub) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Publish queues payload for every subscriber of topic. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Publish(topic string, payload any) {
	if !h.running.Load() {
		return
	}

	queueDepth := len(h.frameChan)
	if queueDepth > cap(h.frameChan)/2 {
		logf("WARNING: queue depth high: %d/%d", queueDepth, cap(h.frameChan))
	}

	f := &frame{topic: topic, stampNs: h.clock.Now().UnixNano(), payload: payload}
	f.seq = h.frameCount.Add(1)
	select {
	case h.frameChan <- f:
		h.logPeriodicStats(f.seq, queueDepth)
	default:
		dropped := h.droppedFrames.Add(1)
		logf("DROPPED %s seq=%d (total dropped: %s), queue full", topic, f.seq, humanize.Comma(int64(dropped)))
	}
}

// logPeriodicStats logs throughput once per StatsInterval.
func (h *Hub) logPeriodicStats(frameCount uint64, queueDepth int) {
	h.lastStatsMu.Lock()
	defer h.lastStatsMu.Unlock()

	now := h.clock.Now()
	if h.lastStatsTime.IsZero() {
		h.lastStatsTime = now
		h.lastFrameCount = frameCount
		return
	}

	elapsed := now.Sub(h.lastStatsTime)
	if elapsed >= h.config.StatsInterval {
		inInterval := frameCount - h.lastFrameCount
		rate := float64(inInterval) / elapsed.Seconds()
		logf("Stats: rate=%.1f/s messages=%s dropped=%s clients=%d queue=%d/%d",
			rate, humanize.Comma(int64(inInterval)), humanize.Comma(int64(h.droppedFrames.Load())),
			h.clientCount.Load(), queueDepth, cap(h.frameChan))
		h.lastStatsTime = now
		h.lastFrameCount = frameCount
	}
}

// broadcastLoop encodes each frame once and hands it to interested clients.
func (h *Hub) broadcastLoop() {
	defer h.wg.Done()

	for {
		select {
		case <-h.stopCh:
			return
		case f := <-h.frameChan:
			h.countTopic(f.topic)

			h.clientsMu.RLock()
			var msg *structpb.Struct
			for _, c := range h.clients {
				if !c.wants(f.topic) {
					continue
				}
				if msg == nil {
					var err error
					if msg, err = encodeFrame(f); err != nil {
						h.encodeErrors.Add(1)
						logf("Failed to encode %s: %v", f.topic, err)
						break
					}
				}
				select {
				case c.frameCh <- msg:
				default:
					h.droppedFrames.Add(1)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

func (h *Hub) countTopic(topic string) {
	h.topicsMu.Lock()
	h.topics[topic]++
	h.topicsMu.Unlock()
}

// addClient registers a subscriber. A nil topic set subscribes to all.
func (h *Hub) addClient(id string, topics map[string]bool) (*client, error) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if h.config.MaxClients > 0 && len(h.clients) >= h.config.MaxClients {
		return nil, fmt.Errorf("client limit %d reached", h.config.MaxClients)
	}
	c := &client{
		id:      id,
		topics:  topics,
		frameCh: make(chan *structpb.Struct, h.config.ClientBuffer),
		doneCh:  make(chan struct{}),
	}
	h.clients[id] = c
	n := h.clientCount.Add(1)
	logf("Client connected: %s (total: %d)", id, n)
	return c, nil
}

// removeClient unregisters a subscriber.
func (h *Hub) removeClient(id string) {
	h.clientsMu.Lock()
	c, ok := h.clients[id]
	if ok {
		close(c.doneCh)
		delete(h.clients, id)
	}
	h.clientsMu.Unlock()
	if ok {
		n := h.clientCount.Add(-1)
		logf("Client disconnected: %s (remaining: %d)", id, n)
	}
}

// Topics returns every advertised or published topic, sorted.
func (h *Hub) Topics() []string {
	h.topicsMu.Lock()
	defer h.topicsMu.Unlock()
	out := make([]string, 0, len(h.topics))
	for t := range h.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stats returns current hub statistics.
func (h *Hub) Stats() HubStats {
	h.topicsMu.Lock()
	perTopic := make(map[string]uint64, len(h.topics))
	for t, n := range h.topics {
		perTopic[t] = n
	}
	h.topicsMu.Unlock()
	return HubStats{
		FrameCount:   h.frameCount.Load(),
		Dropped:      h.droppedFrames.Load(),
		EncodeErrors: h.encodeErrors.Load(),
		ClientCount:  h.clientCount.Load(),
		Running:      h.running.Load(),
		PerTopic:     perTopic,
	}
}

// HubStats contains hub statistics.
type HubStats struct {
	FrameCount   uint64            `json:"frame_count"`
	Dropped      uint64            `json:"dropped"`
	EncodeErrors uint64            `json:"encode_errors"`
	ClientCount  int32             `json:"client_count"`
	Running      bool              `json:"running"`
	PerTopic     map[string]uint64 `json:"per_topic"`
}

// GRPCServer returns the underlying gRPC server for extra registrations.
func (h *Hub) GRPCServer() *grpc.Server {
	return h.server
}
