package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // move intents arrive at frame rate
)

// Client represents a WebSocket connection. Its id is the connection
// identity participants are keyed by, stable for the session lifetime.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	id         string
	gameCode   string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client with a fresh connection identity
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.SendJSON(Envelope{T: MsgConnected, Data: map[string]string{
		"message":   "Connected to server",
		"player_id": c.id,
	}})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read error", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			Log.Warnw("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks a binary frame (see SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorw("marshal error", "err", err)
		return
	}
	c.sendRaw(data)
}

// sendRaw queues pre-marshaled bytes as a text message
func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
		c.hub.metrics.IncDropped()
	}
}

// SendBinary queues bytes as a binary WebSocket message.
// Prefixes with a 0xFF marker so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
		c.hub.metrics.IncDropped()
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope).
// A malformed intent is dropped with an error to this connection only;
// it never aborts the tick loop or touches other sessions.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		Log.Debugw("unmarshal error", "addr", c.remoteAddr, "err", err)
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "malformed message"}})
		return
	}
	c.hub.metrics.IncIntent()

	switch env.T {
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgCancel:
		c.handleCancel(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgMove:
		c.handleMove(env.D)
	case MsgShoot:
		c.handleShoot()
	case MsgMeteorOut:
		c.handleMeteorOut(env.D)
	case MsgLaserMeteor:
		c.handleLaserMeteor(env.D)
	case MsgMeteorHit:
		c.handleMeteorHit(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	}
}

// ensureGuest gives unauthenticated players a guest account so match
// outcomes still land on an aggregate stats row
func (c *Client) ensureGuest() {
	if c.authPlayerID != 0 || c.hub.db == nil {
		return
	}
	name := GenerateGuestName()
	id, err := c.hub.db.CreateGuest(name)
	if err != nil {
		Log.Debugw("guest create failed", "err", err)
		return
	}
	c.authPlayerID = id
	c.authUsername = name
}

func (c *Client) game() *Game {
	if c.gameCode == "" {
		return nil
	}
	return c.hub.registry.Get(c.gameCode)
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateGameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendJSON(Envelope{T: MsgCreateError, Data: ErrorMsg{Message: ErrInvalidName.Error()}})
		return
	}
	g, ship, err := c.hub.registry.Create(c.id, msg.Username)
	if err != nil {
		c.SendJSON(Envelope{T: MsgCreateError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.gameCode = g.Code
	g.SetClient(c.id, c)
	c.ensureGuest()
	if c.authPlayerID != 0 {
		g.SetAuth(c.id, c.authPlayerID)
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: GameCreatedMsg{
		GameID:   g.Code,
		Username: ship.Name,
		Side:     ship.Side.String(),
	}})
	Log.Infow("game created", "game", g.Code, "player", ship.Name)
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinGameMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.GameID == "" {
		c.SendJSON(Envelope{T: MsgJoinError, Data: ErrorMsg{Message: "invalid input: expected game_id and username"}})
		return
	}
	g, ship, err := c.hub.registry.Join(msg.GameID, c.id, msg.Username)
	if err != nil {
		c.SendJSON(Envelope{T: MsgJoinError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.gameCode = g.Code
	g.SetClient(c.id, c)
	c.ensureGuest()
	if c.authPlayerID != 0 {
		g.SetAuth(c.id, c.authPlayerID)
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: GameJoinedMsg{
		GameID:   g.Code,
		Username: ship.Name,
		Side:     ship.Side.String(),
	}})
	g.BroadcastExcept(c.id, Envelope{T: MsgPlayerJoined, Data: PlayerJoinedMsg{Username: ship.Name}})
	Log.Infow("player joined", "game", g.Code, "player", ship.Name)

	// Second seat filled: the match starts and the tick loop begins
	g.Begin()
}

func (c *Client) handleCancel(data json.RawMessage) {
	var msg CancelGameMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if g := c.hub.registry.Cancel(msg.GameID); g != nil {
		g.broadcastJSON(Envelope{T: MsgCancelled})
		if c.gameCode == msg.GameID {
			c.gameCode = ""
		}
		Log.Infow("game cancelled", "game", msg.GameID)
	}
}

func (c *Client) handleLeave() {
	if c.gameCode == "" {
		return
	}
	c.hub.registry.RemoveParticipant(c.id)
	c.gameCode = ""
}

func (c *Client) handleMove(data json.RawMessage) {
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "malformed move payload"}})
		return
	}
	if g := c.game(); g != nil {
		g.HandleMove(c.id, msg.Y)
	}
}

func (c *Client) handleShoot() {
	if g := c.game(); g != nil {
		g.HandleFire(c.id)
	}
}

func (c *Client) handleMeteorOut(data json.RawMessage) {
	var msg MeteorOutMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "malformed meteor payload"}})
		return
	}
	if g := c.game(); g != nil {
		// Duplicate reports are acknowledged no-ops
		_ = g.HandleMeteorOut(msg.MeteorID)
	}
}

func (c *Client) handleLaserMeteor(data json.RawMessage) {
	var msg LaserMeteorMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "malformed collision payload"}})
		return
	}
	g := c.game()
	if g == nil {
		return
	}
	if err := g.HandleLaserMeteorReport(msg.LaserID, msg.MeteorID); err != nil && !errors.Is(err, ErrStateConflict) {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: err.Error()}})
	}
}

func (c *Client) handleMeteorHit(data json.RawMessage) {
	var msg MeteorHitMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "malformed collision payload"}})
		return
	}
	g := c.game()
	if g == nil {
		return
	}
	if err := g.HandleMeteorShipReport(c.id, msg.MeteorID); err != nil && !errors.Is(err, ErrStateConflict) {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: err.Error()}})
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: err.Error()}})
		return
	}
	c.authPlayerID = id
	c.authUsername = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "invalid token"}})
		return
	}
	c.authPlayerID = id
	c.authUsername = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PlayerID: id}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "not authenticated"}})
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Message: "profile not found"}})
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username: c.authUsername,
		Wins:     stats.Wins,
		Losses:   stats.Losses,
		Games:    stats.Games,
	}})
}
