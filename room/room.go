// room/room.go
package room

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jkobber/quizroom/models"
	"github.com/jkobber/quizroom/network"
	"github.com/jkobber/quizroom/question"
	"github.com/jkobber/quizroom/state"
)

// Settings are the per-room game tunables.
type Settings struct {
	MaxQuestions int
	QuestionTime time.Duration
	HostGrace    time.Duration
	IdleGrace    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxQuestions: 30,
		QuestionTime: 120 * time.Second,
		HostGrace:    60 * time.Second,
		IdleGrace:    5 * time.Minute,
	}
}

// Presentation is the shuffled arrangement of one question's answers. It is
// computed once when the question becomes active and reused for every client,
// including reconnects.
type Presentation struct {
	Prompt      string
	Choices     []string
	CorrectSlot int
	Hidden      []int // slots removed by a 50/50 joker
}

// PlayerRef identifies a player inside reveal and spy payloads.
type PlayerRef struct {
	Token  string `json:"token"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// RevealData is the per-question result computed exactly once at reveal time.
type RevealData struct {
	CorrectSlot   int                 `json:"correct_slot"`
	PicksByChoice map[int][]PlayerRef `json:"picks_by_choice"`
	ScoreDeltas   map[string]int      `json:"score_deltas"`
}

// QuestionView is the client-visible part of the active presentation.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Hidden  []int    `json:"hidden,omitempty"`
}

// Snapshot is the full observable room state, pushed on every mutation and
// sent whole to (re)connecting channels.
type Snapshot struct {
	Code           string       `json:"code"`
	Phase          string       `json:"phase"`
	HostToken      string       `json:"host_token"`
	QuestionIndex  int          `json:"question_index"`
	QuestionTotal  int          `json:"question_total"`
	QuestionPoints int          `json:"question_points"`
	Deadline       int64        `json:"deadline,omitempty"`
	JokerUsed      bool         `json:"joker_used_this_q"`
	Closed         bool         `json:"question_closed"`
	Question       *QuestionView `json:"question,omitempty"`
	Reveal         *RevealData  `json:"reveal,omitempty"`
	Players        []PlayerView `json:"players"`
	Avatars        []string     `json:"avatars"`
}

type outbound struct {
	targets []string // nil means every connected channel in the room
	payload interface{}
}

// Room is one game session. All mutation happens through the command methods
// below while holding mu; resulting messages are appended to pending in
// command order and fanned out by the room's own loop goroutine, so
// broadcasts leave the room in the order commands were accepted and no
// transport I/O ever runs under the lock.
type Room struct {
	Code      string
	CreatedAt time.Time

	mu         sync.Mutex
	machine    *state.Machine
	questions  []question.Question
	order      []int
	index      int
	current    *Presentation
	deadline   time.Time
	closed     bool
	jokerUsed  bool
	revealData *RevealData
	players    map[string]*Player
	hostID     string
	hostAway   time.Time // zero while the host is connected
	emptySince time.Time // zero while any player is connected

	settings    Settings
	broadcaster Broadcaster
	recorder    Recorder

	sendMu    sync.Mutex
	pending   []outbound
	notify    chan struct{}
	closeChan chan bool
	closeOnce sync.Once
}

// NewRoom creates a room in the lobby phase and starts its broadcast loop.
func NewRoom(code string, questions []question.Question, settings Settings, broadcaster Broadcaster, recorder Recorder) *Room {
	if settings.MaxQuestions > 0 && len(questions) > settings.MaxQuestions {
		questions = questions[:settings.MaxQuestions]
	}

	r := &Room{
		Code:        code,
		CreatedAt:   time.Now(),
		machine:     state.NewMachine(),
		questions:   questions,
		index:       -1,
		players:     make(map[string]*Player),
		settings:    settings,
		broadcaster: broadcaster,
		recorder:    recorder,
		notify:      make(chan struct{}, 1),
		closeChan:   make(chan bool),
	}

	go r.loop()

	return r
}

// Phase returns the room's current phase.
func (r *Room) Phase() state.Phase {
	return r.machine.Current()
}

// Close stops the broadcast loop. The manager calls this when the room is
// removed from the registry.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}

// --- commands ---

// Join adds a new player, or reconnects an existing one when token matches a
// known player ID. New joins are rejected once the game is over; reconnects
// are always accepted. The returned ID is stable across reconnects.
func (r *Room) Join(name, avatar, token string) (playerID string, reconnect bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != "" {
		if p, exists := r.players[token]; exists {
			p.Connected = true
			p.LastSeen = time.Now()
			r.emptySince = time.Time{}
			if p.ID == r.hostID {
				r.hostAway = time.Time{}
			}
			r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
			return p.ID, true, nil
		}
	}

	if r.machine.Is(state.PhaseGameOver) {
		return "", false, ErrInvalidState
	}

	id := token
	if id == "" {
		id = uuid.NewString()
	}

	p := newPlayer(id, name, validAvatar(avatar))
	p.Connected = true
	r.players[id] = p
	r.emptySince = time.Time{}

	// first player in is the host
	if r.hostID == "" {
		r.hostID = id
	}

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
	return id, false, nil
}

// MarkDisconnected transitions a player to the disconnected state on
// transport loss. All their game state is retained for a later reconnect.
func (r *Room) MarkDisconnected(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[playerID]
	if !exists || !p.Connected {
		return
	}

	p.Connected = false
	p.LastSeen = time.Now()
	if p.ID == r.hostID {
		r.hostAway = time.Now()
	}
	if !r.anyConnectedLocked() {
		r.emptySince = time.Now()
	}

	// the departure may complete the answered quorum
	r.closeQuestionIfCompleteLocked()

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
}

// Start begins the game. Host-only; requires the lobby phase, at least one
// player besides the host and a non-empty question list.
func (r *Room) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if !r.machine.Is(state.PhaseLobby) {
		return ErrInvalidState
	}
	if len(r.players) < 2 || len(r.questions) == 0 {
		return ErrInvalidState
	}

	r.order = rand.Perm(len(r.questions))
	r.index = -1
	for _, p := range r.players {
		p.resetForGame()
	}

	r.advanceLocked()
	return nil
}

// SubmitAnswer records a player's pick for the active question. The first
// accepted answer is final.
func (r *Room) SubmitAnswer(playerID string, choice int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[playerID]
	if !exists {
		return ErrNotFound
	}
	if !r.machine.Is(state.PhaseQuestion) || r.current == nil || r.closed {
		return ErrInvalidState
	}
	if choice < 0 || choice >= len(r.current.Choices) {
		return ErrInvalidState
	}
	if p.answered() {
		return ErrAlreadyAnswered
	}

	p.choice = choice

	r.pushSpyUpdateLocked()
	r.closeQuestionIfCompleteLocked()

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
	return nil
}

// UseJoker spends one of the player's jokers on the active question. Only one
// joker fires per question across the whole room.
func (r *Room) UseJoker(playerID string, kind JokerKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[playerID]
	if !exists {
		return ErrNotFound
	}
	if !r.machine.Is(state.PhaseQuestion) || r.current == nil || r.closed {
		return ErrInvalidState
	}
	if r.jokerUsed {
		return ErrJokerAlreadyUsed
	}
	if !p.hasJoker(kind) {
		return ErrJokerUnavailable
	}

	p.jokers[kind] = false
	r.jokerUsed = true

	switch kind {
	case JokerFiftyFifty:
		hidden := r.pickHiddenSlotsLocked()
		r.current.Hidden = hidden
		r.enqueue(nil, network.NewJokerApplied(string(kind), p.ID, hidden))
	case JokerSpy:
		p.spyActive = true
		r.enqueue([]string{p.ID}, network.NewSpyUpdate(r.picksByChoiceLocked()))
		r.enqueue(nil, network.NewJokerApplied(string(kind), p.ID, nil))
	case JokerRisk:
		p.riskActive = true
		r.enqueue(nil, network.NewJokerApplied(string(kind), p.ID, nil))
	}

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
	return nil
}

// Reveal closes the question and applies score deltas exactly once. Host-only.
// A second reveal on the same question fails with ErrInvalidState.
func (r *Room) Reveal(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if !r.machine.Is(state.PhaseQuestion) || r.current == nil {
		return ErrInvalidState
	}

	r.closed = true

	points := pointsForRound(r.index + 1)
	deltas := make(map[string]int, len(r.players))
	for _, p := range r.players {
		delta := 0
		if p.answered() {
			correct := p.choice == r.current.CorrectSlot
			switch {
			case p.riskActive && correct:
				delta = 2 * points
			case p.riskActive && !correct:
				delta = -points
			case correct:
				delta = points
			}
		}
		p.Score += delta
		deltas[p.ID] = delta
	}

	r.revealData = &RevealData{
		CorrectSlot:   r.current.CorrectSlot,
		PicksByChoice: r.picksByChoiceLocked(),
		ScoreDeltas:   deltas,
	}

	if err := r.machine.Transition(state.PhaseReveal); err != nil {
		return ErrInvalidState
	}

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
	return nil
}

// Next advances to the next question, or to game over after the last one.
// Host-only; requires the reveal phase.
func (r *Room) Next(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if !r.machine.Is(state.PhaseReveal) {
		return ErrInvalidState
	}

	r.advanceLocked()
	return nil
}

// Kick removes a player in any non-terminal phase. Their pending answer and
// joker inventory are discarded. The host cannot be kicked.
func (r *Room) Kick(playerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if r.machine.Is(state.PhaseGameOver) {
		return ErrInvalidState
	}
	if _, exists := r.players[targetID]; !exists {
		return ErrNotFound
	}
	if targetID == r.hostID {
		return ErrUnauthorized
	}

	delete(r.players, targetID)

	if !r.anyConnectedLocked() {
		r.emptySince = time.Now()
	}

	// the departure may complete the answered quorum
	r.closeQuestionIfCompleteLocked()

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
	return nil
}

// End acknowledges the finished game so the registry can tear the room down.
// Host-only; valid only after game over.
func (r *Room) End(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if playerID != r.hostID {
		return ErrUnauthorized
	}
	if !r.machine.Is(state.PhaseGameOver) {
		return ErrInvalidState
	}
	return nil
}

// Snapshot returns the full observable state for a (re)connecting channel.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// HostID returns the current host's player ID.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// Reapable reports whether the registry may destroy this room: either no
// players remain, or nobody has been connected for longer than the idle
// grace period.
func (r *Room) Reapable(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) == 0 {
		return true
	}
	return !r.emptySince.IsZero() && now.Sub(r.emptySince) > r.settings.IdleGrace
}

// --- internals, all called with mu held ---

func (r *Room) advanceLocked() {
	r.index++
	r.jokerUsed = false
	r.closed = false
	r.revealData = nil
	r.current = nil
	r.deadline = time.Time{}
	for _, p := range r.players {
		p.resetForQuestion()
	}

	if r.index >= len(r.order) {
		_ = r.machine.Transition(state.PhaseGameOver)
		r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
		if r.recorder != nil {
			record := r.buildRecordLocked()
			go r.recorder.RecordGame(record)
		}
		return
	}

	q := r.questions[r.order[r.index]]
	r.current = buildPresentation(q)
	r.deadline = time.Now().Add(r.settings.QuestionTime)
	_ = r.machine.Transition(state.PhaseQuestion)

	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
}

func (r *Room) anyConnectedLocked() bool {
	for _, p := range r.players {
		if p.Connected {
			return true
		}
	}
	return false
}

// closeQuestionIfCompleteLocked closes the active question once every
// connected player has answered. Called after every answer and after every
// departure, so the quorum never waits on a player who is gone.
func (r *Room) closeQuestionIfCompleteLocked() {
	if !r.machine.Is(state.PhaseQuestion) || r.current == nil || r.closed {
		return
	}
	if r.allConnectedAnsweredLocked() {
		r.closed = true
	}
}

func (r *Room) allConnectedAnsweredLocked() bool {
	answered := false
	for _, p := range r.players {
		if !p.Connected {
			continue
		}
		if !p.answered() {
			return false
		}
		answered = true
	}
	return answered
}

func (r *Room) picksByChoiceLocked() map[int][]PlayerRef {
	picks := make(map[int][]PlayerRef)
	for i := 0; i < 4; i++ {
		picks[i] = []PlayerRef{}
	}
	for _, p := range r.players {
		if !p.answered() {
			continue
		}
		picks[p.choice] = append(picks[p.choice], PlayerRef{
			Token:  p.ID,
			Name:   p.Name,
			Avatar: p.Avatar,
		})
	}
	return picks
}

func (r *Room) pushSpyUpdateLocked() {
	var spies []string
	for _, p := range r.players {
		if p.spyActive && p.Connected {
			spies = append(spies, p.ID)
		}
	}
	if len(spies) == 0 {
		return
	}
	r.enqueue(spies, network.NewSpyUpdate(r.picksByChoiceLocked()))
}

func (r *Room) pickHiddenSlotsLocked() []int {
	var wrong []int
	for i := range r.current.Choices {
		if i != r.current.CorrectSlot {
			wrong = append(wrong, i)
		}
	}
	rand.Shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	hidden := wrong[:2]
	sort.Ints(hidden)
	return hidden
}

func (r *Room) snapshotLocked() Snapshot {
	players := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerView{
			Token:     p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Score:     p.Score,
			Connected: p.Connected,
			Answered:  p.answered(),
			IsHost:    p.ID == r.hostID,
			Joker5050: p.jokers[JokerFiftyFifty],
			JokerSpy:  p.jokers[JokerSpy],
			JokerRisk: p.jokers[JokerRisk],
		})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Name < players[j].Name
	})

	total := len(r.order)
	if total == 0 {
		total = len(r.questions)
	}

	snap := Snapshot{
		Code:          r.Code,
		Phase:         string(r.machine.Current()),
		HostToken:     r.hostID,
		QuestionIndex: r.index,
		QuestionTotal: total,
		JokerUsed:     r.jokerUsed,
		Closed:        r.closed,
		Reveal:        r.revealData,
		Players:       players,
		Avatars:       Avatars,
	}

	if r.index >= 0 && r.index < len(r.order) {
		snap.QuestionPoints = pointsForRound(r.index + 1)
	}
	if !r.deadline.IsZero() {
		snap.Deadline = r.deadline.Unix()
	}
	if r.current != nil {
		snap.Question = &QuestionView{
			Prompt:  r.current.Prompt,
			Choices: r.current.Choices,
			Hidden:  r.current.Hidden,
		}
	}

	return snap
}

func (r *Room) buildRecordLocked() *models.GameRecord {
	board := make([]models.ScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		board = append(board, models.ScoreEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Score:    p.Score,
		})
	}
	sort.Slice(board, func(i, j int) bool {
		return board[i].Score > board[j].Score
	})

	return &models.GameRecord{
		RoomCode:   r.Code,
		Rounds:     len(r.order),
		Scoreboard: board,
		FinishedAt: time.Now(),
	}
}

// enqueue appends messages to the outbound queue. Callers hold mu, so queue
// order matches the order commands were applied.
func (r *Room) enqueue(targets []string, payload interface{}) {
	r.sendMu.Lock()
	r.pending = append(r.pending, outbound{targets: targets, payload: payload})
	r.sendMu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Room) flush() {
	r.sendMu.Lock()
	batch := r.pending
	r.pending = nil
	r.sendMu.Unlock()

	for _, out := range batch {
		if out.targets == nil {
			r.broadcaster.BroadcastToRoom(r.Code, out.payload)
		} else {
			r.broadcaster.SendToPlayers(r.Code, out.targets, out.payload)
		}
	}
}

// loop drives the outbound queue and the one-second housekeeping tick.
func (r *Room) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.notify:
			r.flush()
		case <-ticker.C:
			r.tick(time.Now())
			r.flush()
		case <-r.closeChan:
			r.flush()
			return
		}
	}
}

// tick closes the question at the deadline, broadcasts countdown ticks and
// promotes a new host once the grace period expires.
func (r *Room) tick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.machine.Is(state.PhaseQuestion) && r.current != nil && !r.closed {
		switch {
		case r.allConnectedAnsweredLocked():
			r.closed = true
			r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
		case !r.deadline.IsZero() && now.After(r.deadline):
			r.closed = true
			r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
		default:
			r.enqueue(nil, network.NewTick(now.Unix(), r.deadline.Unix()))
		}
	}

	r.promoteHostLocked(now)
}

// promoteHostLocked hands the host role to the longest-joined connected
// player when the host has been gone past the grace period. The room stays
// drivable; a late host reconnect rejoins as a regular player.
func (r *Room) promoteHostLocked(now time.Time) {
	if r.hostAway.IsZero() || now.Sub(r.hostAway) < r.settings.HostGrace {
		return
	}

	var candidate *Player
	for _, p := range r.players {
		if !p.Connected || p.ID == r.hostID {
			continue
		}
		if candidate == nil || p.JoinedAt.Before(candidate.JoinedAt) {
			candidate = p
		}
	}
	if candidate == nil {
		return
	}

	r.hostID = candidate.ID
	r.hostAway = time.Time{}
	r.enqueue(nil, network.NewRoomUpdate(r.snapshotLocked()))
}

func pointsForRound(round int) int {
	switch {
	case round >= 26:
		return 10
	case round >= 21:
		return 6
	case round >= 10:
		return 4
	case round >= 5:
		return 2
	default:
		return 1
	}
}

func buildPresentation(q question.Question) *Presentation {
	choices := []string{q.Wrong[0], q.Wrong[1], q.Wrong[2], q.Correct}
	correct := 3
	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	})

	return &Presentation{
		Prompt:      q.Prompt,
		Choices:     choices,
		CorrectSlot: correct,
	}
}
