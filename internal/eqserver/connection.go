package eqserver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/combinedrange"
	"github.com/lox/equityprobe/internal/eqconfig"
	"github.com/lox/equityprobe/internal/equity"
	"github.com/lox/equityprobe/internal/rangetext"
)

var errNoHands = errors.New("eqserver: calculate request needs at least one hand range")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Connection wraps one websocket client and the single equity.Calculator it
// may have running at a time.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	logger *log.Logger
	cfg    *eqconfig.Config

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	calc *equity.Calculator
}

// NewConnection wraps an upgraded websocket connection.
func NewConnection(conn *websocket.Conn, logger *log.Logger, cfg *eqconfig.Config) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 64),
		logger: logger.WithPrefix("conn"),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close stops the connection's calculation, if any, and closes the socket.
func (c *Connection) Close() error {
	c.cancel()
	c.mu.Lock()
	if c.calc != nil {
		c.calc.Stop()
	}
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Connection) sendMessage(msg *Message) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("send buffer full, dropping message", "type", msg.Type)
	}
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	c.sendMessage(msg)
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeCalculate:
		var data CalculateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse calculate request")
			return
		}
		c.handleCalculate(data)
	case MessageTypeCancel:
		c.mu.Lock()
		if c.calc != nil {
			c.calc.Stop()
		}
		c.mu.Unlock()
	default:
		c.sendError("unknown_type", "unrecognized message type")
	}
}

func (c *Connection) handleCalculate(data CalculateData) {
	c.mu.Lock()
	if c.calc != nil {
		c.mu.Unlock()
		c.sendError("busy", "a calculation is already running on this connection")
		return
	}
	c.mu.Unlock()

	opts, err := buildOptions(data, c.cfg)
	if err != nil {
		c.sendError("invalid_request", err.Error())
		return
	}
	opts.UpdateInterval = c.cfg.Defaults.UpdateIntervalDuration()
	opts.Callback = func(r equity.Results) { c.sendResults(MessageTypeProgress, r) }

	calc, err := equity.NewCalculator(opts)
	if err != nil {
		c.sendError("invalid_request", err.Error())
		return
	}

	c.mu.Lock()
	c.calc = calc
	c.mu.Unlock()

	if err := calc.Start(c.ctx); err != nil {
		c.sendError("start_failed", err.Error())
		c.mu.Lock()
		c.calc = nil
		c.mu.Unlock()
		return
	}

	go func() {
		res, err := calc.Wait()
		c.mu.Lock()
		c.calc = nil
		c.mu.Unlock()
		if err != nil {
			c.sendError("calculation_failed", err.Error())
			return
		}
		c.sendResults(MessageTypeDone, res)
	}()
}

func (c *Connection) sendResults(t MessageType, r equity.Results) {
	msg, err := NewMessage(t, ResultsData{
		Players:        r.Players,
		Win:            r.Win,
		Tie:            r.Tie,
		HandsEvaluated: r.HandsEvaluated,
		Exact:          r.Exact,
		Finished:       r.Finished,
	})
	if err != nil {
		return
	}
	c.sendMessage(msg)
}

// buildOptions turns a CalculateData request into engine Options, resolving
// preset names through cfg the same way cmd/equity's CLI does.
func buildOptions(data CalculateData, cfg *eqconfig.Config) (equity.Options, error) {
	if len(data.Hands) == 0 {
		return equity.Options{}, errNoHands
	}
	ranges := make([][]combinedrange.HoleCards, len(data.Hands))
	for i, h := range data.Hands {
		if r, ok := cfg.PresetRange(h); ok {
			h = r
		}
		combos, err := rangetext.Parse(h)
		if err != nil {
			return equity.Options{}, err
		}
		ranges[i] = combos
	}

	var board, dead []card.Card
	var err error
	if data.Board != "" {
		board, err = card.Parse(data.Board)
		if err != nil {
			return equity.Options{}, err
		}
	}
	if data.Dead != "" {
		dead, err = card.Parse(data.Dead)
		if err != nil {
			return equity.Options{}, err
		}
	}

	var timeLimit time.Duration
	if data.TimeLim != "" {
		timeLimit, err = time.ParseDuration(data.TimeLim)
		if err != nil {
			return equity.Options{}, err
		}
	}

	return equity.Options{
		Board:       board,
		DeadCards:   dead,
		Ranges:      ranges,
		Mode:        parseServerMode(data.Mode),
		Sampling:    parseServerSampling(data.Sampling),
		StdevTarget: data.Stdev,
		TimeLimit:   timeLimit,
		HandLimit:   data.HandLim,
		Workers:     data.Workers,
		MaxJoinSize: uint64(cfg.Defaults.MaxJoinSize),
	}, nil
}

func parseServerMode(s string) equity.Mode {
	switch s {
	case "enumerate":
		return equity.Enumerate
	case "montecarlo":
		return equity.MonteCarlo
	default:
		return equity.Auto
	}
}

func parseServerSampling(s string) equity.SamplingMode {
	if s == "randomwalk" {
		return equity.RandomWalk
	}
	return equity.UniformRejection
}
