package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Client -> server message types.
const (
	MsgHello  = "hello"
	MsgPing   = "ping"
	MsgStart  = "game:start"
	MsgAnswer = "answer:submit"
	MsgJoker  = "joker:use"
	MsgReveal = "host:reveal"
	MsgNext   = "host:next"
	MsgKick   = "player:kick"
	MsgEnd    = "host:end"
)

// Server -> client message types.
const (
	MsgHelloOK      = "hello:ok"
	MsgRoomUpdate   = "room:update"
	MsgJokerApplied = "joker:applied"
	MsgSpyUpdate    = "spy:update"
	MsgTick         = "tick"
	MsgPong         = "pong"
	MsgKicked       = "kicked"
	MsgError        = "error"
)

// Wire error kinds. Command errors are mapped to exactly one of these at the
// codec boundary and sent to the originating channel only.
const (
	KindInvalidState        = "InvalidState"
	KindAlreadyAnswered     = "AlreadyAnswered"
	KindJokerAlreadyUsed    = "JokerAlreadyUsed"
	KindJokerUnavailable    = "JokerUnavailable"
	KindNotFound            = "NotFound"
	KindUnauthorized        = "Unauthorized"
	KindProtocolError       = "ProtocolError"
	KindQuestionSourceError = "QuestionSourceError"
)

// ErrMalformed is returned for payloads that fail shape validation. They are
// answered with a ProtocolError and otherwise dropped.
var ErrMalformed = errors.New("malformed message")

const maxNameLength = 24

// Inbound is the decoded union of all client messages.
type Inbound struct {
	Type   string `json:"type"`
	Create bool   `json:"create,omitempty"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Token  string `json:"token,omitempty"`
	Choice *int   `json:"choice,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Target string `json:"target,omitempty"`
}

// Decode parses and validates a raw client frame. The returned message has
// its type-specific fields checked; anything that fails here never reaches a
// room.
func Decode(raw []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch in.Type {
	case MsgHello:
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			in.Name = "Player"
		}
		// truncate on rune boundaries, names may contain emoji
		if utf8.RuneCountInString(in.Name) > maxNameLength {
			in.Name = string([]rune(in.Name)[:maxNameLength])
		}
	case MsgAnswer:
		if in.Choice == nil || *in.Choice < 0 || *in.Choice > 3 {
			return nil, fmt.Errorf("%w: answer choice out of range", ErrMalformed)
		}
	case MsgJoker:
		switch in.Kind {
		case "5050", "spy", "risk":
		default:
			return nil, fmt.Errorf("%w: unknown joker kind %q", ErrMalformed, in.Kind)
		}
	case MsgKick:
		if in.Target == "" {
			return nil, fmt.Errorf("%w: kick without target", ErrMalformed)
		}
	case MsgPing, MsgStart, MsgReveal, MsgNext, MsgEnd:
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrMalformed, in.Type)
	}

	return &in, nil
}

type HelloOK struct {
	Type     string `json:"type"`
	Token    string `json:"token"`
	RoomCode string `json:"room_code"`
}

func NewHelloOK(token, roomCode string) HelloOK {
	return HelloOK{Type: MsgHelloOK, Token: token, RoomCode: roomCode}
}

type RoomUpdate struct {
	Type string      `json:"type"`
	Room interface{} `json:"room"`
}

func NewRoomUpdate(snapshot interface{}) RoomUpdate {
	return RoomUpdate{Type: MsgRoomUpdate, Room: snapshot}
}

type JokerApplied struct {
	Type   string `json:"type"`
	Kind   string `json:"kind"`
	By     string `json:"by"`
	Hidden []int  `json:"hidden,omitempty"`
}

func NewJokerApplied(kind, by string, hidden []int) JokerApplied {
	return JokerApplied{Type: MsgJokerApplied, Kind: kind, By: by, Hidden: hidden}
}

type SpyUpdate struct {
	Type  string      `json:"type"`
	Picks interface{} `json:"picks_by_choice"`
}

func NewSpyUpdate(picks interface{}) SpyUpdate {
	return SpyUpdate{Type: MsgSpyUpdate, Picks: picks}
}

type Tick struct {
	Type     string `json:"type"`
	Now      int64  `json:"now"`
	Deadline int64  `json:"deadline"`
}

func NewTick(now, deadline int64) Tick {
	return Tick{Type: MsgTick, Now: now, Deadline: deadline}
}

type Pong struct {
	Type string `json:"type"`
}

func NewPong() Pong {
	return Pong{Type: MsgPong}
}

type Kicked struct {
	Type string `json:"type"`
}

func NewKicked() Kicked {
	return Kicked{Type: MsgKicked}
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func NewError(kind, message string) ErrorMsg {
	return ErrorMsg{Type: MsgError, Kind: kind, Message: message}
}
