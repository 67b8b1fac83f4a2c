package room

import (
	"time"
)

// JokerKind is the closed set of one-shot abilities. Each player holds one of
// each for the whole game; the room additionally allows only one joker use
// per question across all players.
type JokerKind string

const (
	JokerFiftyFifty JokerKind = "5050"
	JokerSpy        JokerKind = "spy"
	JokerRisk       JokerKind = "risk"
)

// Avatars a player may pick at join time. Anything else falls back to the
// first entry.
var Avatars = []string{"🦊", "🐼", "🐸", "🐵", "🐯", "🐙", "🐧", "🦄"}

const noAnswer = -1

// Player is one participant. The ID is stable across reconnects; name and
// avatar are fixed at join time.
type Player struct {
	ID        string
	Name      string
	Avatar    string
	Score     int
	Connected bool
	JoinedAt  time.Time
	LastSeen  time.Time

	jokers map[JokerKind]bool

	// per-question transient state
	choice     int
	riskActive bool
	spyActive  bool
}

func newPlayer(id, name, avatar string) *Player {
	now := time.Now()
	return &Player{
		ID:       id,
		Name:     name,
		Avatar:   avatar,
		JoinedAt: now,
		LastSeen: now,
		jokers: map[JokerKind]bool{
			JokerFiftyFifty: true,
			JokerSpy:        true,
			JokerRisk:       true,
		},
		choice: noAnswer,
	}
}

func (p *Player) resetForGame() {
	p.Score = 0
	p.jokers[JokerFiftyFifty] = true
	p.jokers[JokerSpy] = true
	p.jokers[JokerRisk] = true
	p.resetForQuestion()
}

func (p *Player) resetForQuestion() {
	p.choice = noAnswer
	p.riskActive = false
	p.spyActive = false
}

func (p *Player) hasJoker(kind JokerKind) bool {
	return p.jokers[kind]
}

func (p *Player) answered() bool {
	return p.choice != noAnswer
}

// PlayerView is the roster entry broadcast to clients.
type PlayerView struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	Answered  bool   `json:"answered"`
	IsHost    bool   `json:"is_host"`
	Joker5050 bool   `json:"joker_5050"`
	JokerSpy  bool   `json:"joker_spy"`
	JokerRisk bool   `json:"joker_risk"`
}

func validAvatar(avatar string) string {
	for _, a := range Avatars {
		if a == avatar {
			return avatar
		}
	}
	return Avatars[0]
}
