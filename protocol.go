package main

import "encoding/json"

// Client -> Server message types (event names follow the web client)
const (
	MsgCreate      = "create_game"
	MsgJoin        = "join_game"
	MsgCancel      = "cancel_game"
	MsgLeave       = "leave_game"
	MsgMove        = "player_move"
	MsgShoot       = "player_shoot"
	MsgMeteorOut   = "meteor_respawn"         // client-reported out-of-bounds meteor
	MsgLaserMeteor = "laser_meteor_collision" // client-reported laser hit
	MsgMeteorHit   = "meteor_collision"       // client-reported ship impact
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgProfile     = "profile"
)

// Server -> Client message types
const (
	MsgConnected    = "connection_established"
	MsgCreated      = "game_created"
	MsgJoined       = "game_joined"
	MsgPlayerJoined = "player_joined"
	MsgStart        = "game_start"
	MsgState        = "game_state"
	MsgScore        = "score_update"
	MsgEnded        = "game_ended"
	MsgCancelled    = "game_cancelled"
	MsgJoinError    = "join_error"
	MsgCreateError  = "game_creation_error"
	MsgError        = "error"
	MsgAuthOK       = "auth_ok"
	MsgProfileData  = "profile_data"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// CreateGameMsg asks for a fresh room
type CreateGameMsg struct {
	Username string `json:"username"`
}

// JoinGameMsg joins an existing room by code
type JoinGameMsg struct {
	GameID   string `json:"game_id"`
	Username string `json:"username"`
}

// CancelGameMsg cancels a room still waiting for an opponent
type CancelGameMsg struct {
	GameID string `json:"game_id"`
}

// MoveMsg sets the ship's vertical position
type MoveMsg struct {
	Y float64 `json:"y"`
}

// MeteorOutMsg reports a meteor that drifted off the visible playfield
type MeteorOutMsg struct {
	MeteorID int `json:"meteor_id"`
}

// LaserMeteorMsg reports a laser-meteor impact seen by the client
type LaserMeteorMsg struct {
	LaserID  string `json:"laser_id"`
	MeteorID int    `json:"meteor_id"`
}

// MeteorHitMsg reports a meteor striking the reporting client's ship
type MeteorHitMsg struct {
	MeteorID int `json:"meteor_id"`
}

// GameCreatedMsg confirms room creation to the creator
type GameCreatedMsg struct {
	GameID   string `json:"game_id"`
	Username string `json:"username"`
	Side     string `json:"player_side"`
}

// GameJoinedMsg confirms a join to the joiner
type GameJoinedMsg struct {
	GameID   string `json:"game_id"`
	Username string `json:"username"`
	Side     string `json:"player_side"`
}

// PlayerJoinedMsg notifies the other participant of a new arrival
type PlayerJoinedMsg struct {
	Username string `json:"username"`
}

// ScoreUpdateMsg is pushed whenever a scoring event lands
type ScoreUpdateMsg struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// GameEndedMsg announces the final result
type GameEndedMsg struct {
	Reason     string `json:"reason"` // "timeout", "disconnection", "destroyed"
	Winner     string `json:"winner"` // display name, "" on a draw
	ScoreLeft  int    `json:"score_left"`
	ScoreRight int    `json:"score_right"`
}

// ErrorMsg sends an error to one client
type ErrorMsg struct {
	Message string `json:"message"`
}

// ShipState is one ship in the snapshot
type ShipState struct {
	ID         string  `json:"id" msgpack:"id"`
	Name       string  `json:"n" msgpack:"n"`
	Side       string  `json:"s" msgpack:"s"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Score      int     `json:"sc" msgpack:"sc"`
	Respawning bool    `json:"rs" msgpack:"rs"`
	CooldownMs float64 `json:"cd" msgpack:"cd"`
}

// MeteorState is one meteor in the snapshot
type MeteorState struct {
	ID    int     `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	VX    float64 `json:"vx" msgpack:"vx"`
	VY    float64 `json:"vy" msgpack:"vy"`
	Scale float64 `json:"sa" msgpack:"sa"`
	Stage int     `json:"st" msgpack:"st"`
}

// LaserState is one live laser in the snapshot
type LaserState struct {
	ID   string  `json:"id" msgpack:"id"`
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	Side string  `json:"s" msgpack:"s"`
}

// Snapshot is the complete authoritative state broadcast every tick
// while the match is active. It is sent as a msgpack binary frame;
// everything else on the wire is a JSON Envelope.
type Snapshot struct {
	Tick    uint64        `json:"tick" msgpack:"tick"`
	ClockMs float64       `json:"clock" msgpack:"clock"`
	Ships   []ShipState   `json:"ships" msgpack:"ships"`
	Meteors []MeteorState `json:"meteors" msgpack:"meteors"`
	Lasers  []LaserState  `json:"lasers" msgpack:"lasers"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"player_id"`
}

// ProfileDataMsg carries aggregate account stats
type ProfileDataMsg struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Games    int    `json:"games"`
}
