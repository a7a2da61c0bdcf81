package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Config holds the websocket feed settings.
type Config struct {
	APIKey         string
	URL            string
	Symbols        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Client streams live NSE trades over the Finnhub websocket. Symbols are
// subscribed with the exchange prefix on the wire and stripped back to
// plain tickers on the way out.
type Client struct {
	cfg  Config
	subs map[string]string // wire symbol -> plain ticker
	log  *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

var _ drepo.MarketStream = (*Client)(nil)

func New(cfg Config, log *applogger.Logger) *Client {
	subs := make(map[string]string, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		plain := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "NSE:")
		if plain == "" {
			continue
		}
		subs["NSE:"+plain] = plain
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{cfg: cfg, subs: subs, log: log}
}

func (c *Client) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s?token=%s", c.cfg.URL, c.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.log.Info("finnhub stream connected", applogger.Int("symbols", len(c.subs)))
	return nil
}

// Subscribe registers every configured symbol on the open connection.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("finnhub not connected")
	}
	for wire := range c.subs {
		sub := map[string]string{"type": "subscribe", "symbol": wire}
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", wire, err)
		}
	}
	return nil
}

// trade frames carry price, volume and a millisecond timestamp.
type tradeFrame struct {
	Type string `json:"type"`
	Data []struct {
		Symbol string  `json:"s"`
		Price  float64 `json:"p"`
		Volume float64 `json:"v"`
		TimeMs int64   `json:"t"`
	} `json:"data"`
}

// Read launches the ping and read loops and returns their channels. Both
// channels close when the read loop exits; a value on the error channel
// means the caller should Reconnect.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)
	go func() {
		defer close(ticks)
		defer close(errs)
		c.readLoop(ctx, ticks, errs)
	}()

	return ticks, errs
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := c.current(); conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, ticks chan<- *models.Tick, errs chan<- error) {
	for ctx.Err() == nil {
		conn := c.current()
		if conn == nil {
			errs <- fmt.Errorf("finnhub connection lost")
			return
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			errs <- fmt.Errorf("finnhub read: %w", err)
			return
		}

		var frame tradeFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "trade" {
			// Pings, acks and anything unrecognized.
			continue
		}
		for _, d := range frame.Data {
			plain, ok := c.subs[d.Symbol]
			if !ok {
				plain = strings.TrimPrefix(d.Symbol, "NSE:")
			}
			t := &models.Tick{
				Symbol:    plain,
				Price:     d.Price,
				Volume:    d.Volume,
				Timestamp: time.UnixMilli(d.TimeMs),
			}
			select {
			case ticks <- t:
			default:
				// Backpressure; the pipeline throttles anyway.
			}
		}
	}
}

// Reconnect tears the connection down, waits, and resubscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.ReconnectDelay):
	}

	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
