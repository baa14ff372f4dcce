package ui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"callbridge/bridge"
	"callbridge/core"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultSendBufferSize = 256
	writeTimeout          = 10 * time.Second
)

// PublisherConfig configures the presentation-sink WebSocket publisher.
type PublisherConfig struct {
	ConnectURL string
	// MinDelay/MaxDelay bound the artificial pacing between word chunks
	// emitted by Say. Zero values disable pacing.
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *core.Logger
}

// Publisher is the outbound WebSocket client feeding the observing
// interface. It sends ordered message chunks; the consumer reassembles
// them by message ID. It implements bridge.Sink.
type Publisher struct {
	config PublisherConfig
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	logger *core.Logger

	sendCh   chan []byte
	done     chan struct{}
	doneOnce sync.Once
	once     sync.Once
}

// NewPublisher creates a new presentation-sink publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	if cfg.Logger == nil {
		cfg.Logger = core.GetLogger()
	}
	return &Publisher{
		config: cfg,
		logger: cfg.Logger.With(map[string]interface{}{"component": "ui"}),
		sendCh: make(chan []byte, defaultSendBufferSize),
		done:   make(chan struct{}),
	}
}

// Connect dials the sink endpoint and starts the read/write loops. The
// provided context controls the publisher's lifetime.
func (p *Publisher) Connect(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.logger.With(map[string]interface{}{"url": p.config.ConnectURL}).Info("connecting to presentation sink")

	conn, _, err := websocket.DefaultDialer.DialContext(p.ctx, p.config.ConnectURL, nil)
	if err != nil {
		p.cancel()
		return fmt.Errorf("ui: dial %q: %w", p.config.ConnectURL, err)
	}
	p.conn = conn

	go p.readLoop()
	go p.writeLoop()

	return nil
}

// Publish enqueues one message chunk for delivery. Chunks for a given
// message ID are delivered in the order they were published; when the
// buffer is full the oldest pending chunk is dropped.
func (p *Publisher) Publish(chunk bridge.MessageChunk) {
	data, err := sonic.Marshal(chunk)
	if err != nil {
		p.logger.Warn("failed to marshal chunk, dropping", "error", err)
		return
	}
	select {
	case p.sendCh <- data:
	default:
		// Buffer full: drop oldest and push new.
		select {
		case <-p.sendCh:
		default:
		}
		select {
		case p.sendCh <- data:
		default:
		}
	}
}

// Say streams a whole message word by word as ordered chunks with the
// configured artificial pacing, then sends the finished marker.
func (p *Publisher) Say(author, text string) {
	msgID := uuid.NewString()
	for _, word := range strings.Fields(text) {
		p.Publish(bridge.MessageChunk{
			ID:     msgID,
			Author: author,
			Text:   word + " ",
		})
		p.pause()
	}
	p.Publish(bridge.MessageChunk{
		ID:       msgID,
		Author:   author,
		Finished: true,
	})
}

func (p *Publisher) pause() {
	if p.config.MaxDelay <= 0 {
		return
	}
	delay := p.config.MinDelay
	if spread := p.config.MaxDelay - p.config.MinDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	time.Sleep(delay)
}

// Wait blocks until the connection drops or the context is cancelled.
func (p *Publisher) Wait() error {
	<-p.done
	return nil
}

// Close shuts down the publisher.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		if p.conn != nil {
			p.conn.Close()
		}
		p.doneOnce.Do(func() { close(p.done) })
	})
}

func (p *Publisher) readLoop() {
	defer func() {
		p.doneOnce.Do(func() { close(p.done) })
		p.cancel()
	}()

	// The sink does not send application frames; reading here just
	// services control frames and detects close.
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Warn("presentation sink connection lost", "error", err)
			}
			return
		}
	}
}

func (p *Publisher) writeLoop() {
	for {
		select {
		case data := <-p.sendCh:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.logger.Warn("write to presentation sink failed", "error", err)
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
