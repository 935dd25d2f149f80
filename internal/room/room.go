package room

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/registry"
	"github.com/arcadehq/tictactoe-backend/internal/rules"
)

const (
	inboxSize     = 32
	storeTimeout  = 5 * time.Second
	recordTimeout = 10 * time.Second
	maxSeats      = 2
)

// SessionStore mirrors room and seat bindings into shared storage so
// reconnect routing survives a lost transport.
type SessionStore interface {
	SaveRoom(ctx context.Context, snapshot *entity.RoomSnapshot) error
	DeleteRoom(ctx context.Context, roomID string) error
	BindPlayer(ctx context.Context, identity, roomID string) error
	UnbindPlayer(ctx context.Context, identity string) error
}

// StatsRecorder records one finished game for an authenticated player.
type StatsRecorder interface {
	Record(ctx context.Context, userID, outcome string) (entity.LevelChange, error)
}

// Config is the per-room timing policy.
type Config struct {
	TurnDuration     time.Duration
	AnnounceDuration time.Duration
	IdleDuration     time.Duration
}

type seat struct {
	player *entity.Player
	sender Sender
}

// Room is one authoritative two-player session. All mutating operations go
// through a single inbox processed by one goroutine, so rooms are race-free
// internally and fully parallel across each other.
type Room struct {
	id     string
	logger *slog.Logger
	cfg    Config

	registry *registry.Registry
	sessions SessionStore
	stats    StatsRecorder
	onClose  func(roomID string)

	inbox chan message
	done  chan struct{}

	// Owned by the run goroutine.
	seats       [maxSeats]*seat
	board       entity.Board
	status      string
	turn        string
	winner      string
	moveSeq     uint64
	votes       map[string]struct{}
	turnClock   countdown
	announce    countdown
	idle        countdown
	turnStarted time.Time
}

// New seats two matched players and starts the room goroutine. The room
// stays in lobby until Start is called.
func New(
	logger *slog.Logger,
	id string,
	cfg Config,
	players [maxSeats]*entity.Player,
	senders [maxSeats]Sender,
	reg *registry.Registry,
	sessions SessionStore,
	stats StatsRecorder,
	onClose func(roomID string),
) *Room {
	that := &Room{
		id:       id,
		logger:   logger.With("component", "room", "roomID", id),
		cfg:      cfg,
		registry: reg,
		sessions: sessions,
		stats:    stats,
		onClose:  onClose,
		inbox:    make(chan message, inboxSize),
		done:     make(chan struct{}),
		board:    entity.NewBoard(),
		status:   entity.StatusLobby,
		votes:    make(map[string]struct{}),
	}

	for i := range players {
		that.seats[i] = &seat{player: players[i], sender: senders[i]}
	}

	go that.run()

	return that
}

func (that *Room) ID() string { return that.id }

// Start seats both players, announces the room and runs the coin toss.
func (that *Room) Start() { that.post(startMsg{}) }

// SubmitMove attempts a move for the given identity. Rejections are
// reported to reply via the error event; authoritative state is never
// touched by a rejected move. A move aimed at a closed room is rejected
// the same way, never dropped silently.
func (that *Room) SubmitMove(identity string, row, col int, reply Sender) {
	if !that.post(moveMsg{identity: identity, row: row, col: col, reply: reply}) {
		that.sendError(reply, apperror.ErrRoomNotFound)
	}
}

// VoteRematch records a rematch vote; the second vote commits.
func (that *Room) VoteRematch(identity string, reply Sender) {
	if !that.post(rematchVoteMsg{identity: identity, reply: reply}) {
		that.sendError(reply, apperror.ErrRoomNotFound)
	}
}

// Leave vacates the identity's seat. Leaving mid-game forfeits.
func (that *Room) Leave(identity string, intentional bool, reply Sender) {
	if !that.post(leaveMsg{identity: identity, intentional: intentional, reply: reply}) {
		that.sendError(reply, apperror.ErrRoomNotFound)
	}
}

// Reconnect reclaims the seat holding symbol for a fresh transport
// identity. userID must match the seat's owner when the seat belongs to an
// authenticated player.
func (that *Room) Reconnect(identity, userID, symbol string, sender Sender) {
	if !that.post(reconnectMsg{identity: identity, userID: userID, symbol: symbol, sender: sender}) {
		that.sendError(sender, apperror.ErrRoomNotFound)
	}
}

// PlayerDisconnected marks the identity's seat as absent. Called by the
// connection registry; the seat survives until the grace window expires.
func (that *Room) PlayerDisconnected(identity string) {
	that.post(disconnectMsg{identity: identity})
}

// GraceExpired resolves an absence the grace window could not heal.
func (that *Room) GraceExpired(identity string) {
	that.post(graceExpiredMsg{identity: identity})
}

// Snapshot returns a consistent copy of the room state.
func (that *Room) Snapshot() entity.RoomSnapshot {
	resp := make(chan entity.RoomSnapshot, 1)

	select {
	case that.inbox <- snapshotMsg{resp: resp}:
	case <-that.done:
		return entity.RoomSnapshot{ID: that.id, Status: entity.StatusClosed}
	}

	select {
	case snap := <-resp:
		return snap
	case <-that.done:
		return entity.RoomSnapshot{ID: that.id, Status: entity.StatusClosed}
	}
}

// Done is closed once the room reaches its terminal state.
func (that *Room) Done() <-chan struct{} { return that.done }

// post delivers msg to the room goroutine. It reports false when the room
// already closed and the message could not be accepted.
func (that *Room) post(msg message) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.inbox <- msg:
		return true
	case <-that.done:
		return false
	}
}

func (that *Room) run() {
	defer close(that.done)

	for msg := range that.inbox {
		that.dispatch(msg)

		if that.status != entity.StatusClosed {
			continue
		}

		// Reject whatever raced the close before done becomes visible.
		for {
			select {
			case late := <-that.inbox:
				that.reject(late)
			default:
				return
			}
		}
	}
}

// reject answers a message that arrived while the room was closing.
func (that *Room) reject(msg message) {
	switch m := msg.(type) {
	case moveMsg:
		that.sendError(m.reply, apperror.ErrRoomNotFound)
	case rematchVoteMsg:
		that.sendError(m.reply, apperror.ErrRoomNotFound)
	case leaveMsg:
		that.sendError(m.reply, apperror.ErrRoomNotFound)
	case reconnectMsg:
		that.sendError(m.sender, apperror.ErrRoomNotFound)
	case snapshotMsg:
		m.resp <- that.snapshot()
	}
}

func (that *Room) dispatch(msg message) {
	switch m := msg.(type) {
	case startMsg:
		that.handleStart()
	case moveMsg:
		that.handleMove(m)
	case clockExpiredMsg:
		that.handleClockExpired(m.gen)
	case tossDoneMsg:
		that.handleTossDone(m.gen)
	case idleExpiredMsg:
		that.handleIdleExpired(m.gen)
	case disconnectMsg:
		that.handleDisconnect(m.identity)
	case graceExpiredMsg:
		that.handleGraceExpired(m.identity)
	case reconnectMsg:
		that.handleReconnect(m)
	case rematchVoteMsg:
		that.handleVote(m)
	case leaveMsg:
		that.handleLeave(m)
	case snapshotMsg:
		m.resp <- that.snapshot()
	}
}

func (that *Room) handleStart() {
	if that.status != entity.StatusLobby {
		return
	}

	for _, st := range that.seats {
		that.registry.Bind(st.player.ID, that)
		that.bindSession(st.player.ID)
	}

	for _, st := range that.seats {
		that.send(st, EventRoomJoined, roomJoinedPayload{
			RoomID:       that.id,
			Players:      that.entries(),
			PlayerSymbol: st.player.Symbol,
		})
	}

	that.logger.Info("room started",
		"playerX", that.seatBySymbol(entity.PlayerX).player.ID,
		"playerO", that.seatBySymbol(entity.PlayerO).player.ID)

	that.startCoinToss()
}

// startCoinToss picks the starting symbol uniformly at random, announces it
// and arms the announcement delay before play begins. Seat symbols are kept
// fixed across rematches.
func (that *Room) startCoinToss() {
	that.status = entity.StatusCoinToss

	face, starter := coinHeads, entity.PlayerX
	if rand.Intn(2) == 1 { //nolint:gosec // game fairness, not crypto
		face, starter = coinTails, entity.PlayerO
	}

	that.turn = starter
	that.broadcast(EventCoinToss, coinTossPayload{Result: face, StartingPlayer: starter})

	that.announce.arm(that.cfg.AnnounceDuration, func(gen uint64) {
		that.post(tossDoneMsg{gen: gen})
	})
}

func (that *Room) handleTossDone(gen uint64) {
	if that.status != entity.StatusCoinToss || !that.announce.current(gen) {
		return
	}

	that.status = entity.StatusPlaying
	that.broadcast(EventGameStart, gameStartPayload{GameState: that.state(), Players: that.entries()})
	that.armTurnClock()
	that.saveSnapshot()
}

func (that *Room) handleMove(m moveMsg) {
	if that.status != entity.StatusPlaying {
		that.sendError(m.reply, apperror.ErrGameNotActive)
		return
	}

	st := that.seatOf(m.identity)
	if st == nil {
		that.sendError(m.reply, apperror.ErrInvalidIdentity)
		return
	}

	if st.player.Symbol != that.turn {
		that.sendError(m.reply, apperror.ErrNotYourTurn)
		return
	}

	if err := that.applyMove(st.player.Symbol, m.row, m.col); err != nil {
		that.sendError(m.reply, err)
	}
}

// applyMove is the single acceptance path shared by player moves and
// automatic moves.
func (that *Room) applyMove(symbol string, row, col int) error {
	next, err := rules.ValidateAndApply(that.board, symbol, row, col, that.moveSeq+1)
	if err != nil {
		return err
	}

	that.board = next
	that.moveSeq++
	that.turnClock.cancel()

	switch {
	case rules.CheckWinner(that.board) == symbol:
		that.finishGame(symbol)
	case rules.IsDraw(that.board):
		that.finishGame("")
	default:
		that.turn = entity.OpponentOf(symbol)
		that.broadcast(EventGameState, that.state())
		that.armTurnClock()
	}

	that.saveSnapshot()

	return nil
}

// handleClockExpired submits a forced move for the symbol whose turn ran
// out. The target cell is selected among the empty cells at this moment,
// inside the serialized handler, so a late player move can never race it.
func (that *Room) handleClockExpired(gen uint64) {
	if that.status != entity.StatusPlaying || !that.turnClock.current(gen) {
		return
	}

	cells := rules.EmptyCells(that.board)
	if len(cells) == 0 {
		// A full board is already a draw before the clock can expire.
		return
	}

	pick := cells[rand.Intn(len(cells))] //nolint:gosec // uniform pick, not crypto
	symbol := that.turn

	that.broadcast(EventAutoMove, autoMovePayload{
		Player: symbol,
		Row:    pick[0],
		Col:    pick[1],
		Reason: ReasonTimeout,
	})

	if err := that.applyMove(symbol, pick[0], pick[1]); err != nil {
		that.logger.Error("automatic move rejected", "error", err)
	}
}

func (that *Room) armTurnClock() {
	that.turnStarted = time.Now()
	that.turnClock.arm(that.cfg.TurnDuration, func(gen uint64) {
		that.post(clockExpiredMsg{gen: gen})
	})

	that.broadcast(EventTurnTimerStart, turnTimerPayload{
		StartTime: that.turnStarted.UnixMilli(),
		Duration:  that.cfg.TurnDuration.Milliseconds(),
	})
}

// finishGame enters game-over. winner is empty for a draw. Rematch votes
// reset on every game-over entry.
func (that *Room) finishGame(winner string) {
	that.status = entity.StatusGameOver
	that.winner = winner
	that.turnClock.cancel()
	that.votes = make(map[string]struct{})

	that.broadcast(EventGameState, that.state())
	that.recordOutcomes(winner)

	that.idle.arm(that.cfg.IdleDuration, func(gen uint64) {
		that.post(idleExpiredMsg{gen: gen})
	})

	that.logger.Info("game finished", "winner", winner, "moves", that.moveSeq)
}

func (that *Room) handleIdleExpired(gen uint64) {
	if that.status != entity.StatusGameOver || !that.idle.current(gen) {
		return
	}

	that.logger.Info("room idle after game over, closing")
	that.close()
}

func (that *Room) handleVote(m rematchVoteMsg) {
	if that.status != entity.StatusGameOver {
		that.sendError(m.reply, apperror.ErrGameNotActive)
		return
	}

	st := that.seatOf(m.identity)
	if st == nil {
		that.sendError(m.reply, apperror.ErrInvalidIdentity)
		return
	}

	if _, voted := that.votes[m.identity]; voted {
		return
	}

	that.votes[m.identity] = struct{}{}
	that.broadcast(EventRematchRequested, m.identity)

	if len(that.votes) == that.seatCount() && that.seatCount() == maxSeats {
		that.restart()
	}
}

// restart resets the board for a committed rematch and reruns the coin
// toss. moveSeq restarts from zero; symbols stay with their seats.
func (that *Room) restart() {
	that.idle.cancel()
	that.board = entity.NewBoard()
	that.moveSeq = 0
	that.winner = ""
	that.votes = make(map[string]struct{})

	that.logger.Info("rematch committed")
	that.startCoinToss()
}

func (that *Room) handleDisconnect(identity string) {
	st := that.seatOf(identity)
	if st == nil || !st.player.Connected {
		return
	}

	st.player.Connected = false
	st.player.LastSeen = time.Now()

	that.broadcast(EventPlayerLeft, playerLeftPayload{
		GameState:        that.state(),
		RemainingPlayers: that.entriesExcept(identity),
		GameStatus:       that.status,
		Reason:           ReasonDisconnect,
		PlayerID:         identity,
		Intentional:      false,
	})
}

func (that *Room) handleGraceExpired(identity string) {
	st := that.seatOf(identity)
	if st == nil || st.player.Connected {
		return
	}

	that.vacateSeat(st)

	opp := that.anySeat()
	if opp == nil {
		that.close()
		return
	}

	if !opp.player.Connected {
		// Both players timed out; nobody is left to award a win to.
		that.vacateSeat(opp)
		that.close()
		return
	}

	if that.status == entity.StatusPlaying {
		that.finishGame(opp.player.Symbol)
	}

	that.send(opp, EventPlayerLeft, playerLeftPayload{
		GameState:        that.state(),
		RemainingPlayers: that.entries(),
		GameStatus:       that.status,
		Reason:           ReasonOpponentTimeout,
		PlayerID:         identity,
		Intentional:      false,
	})
}

func (that *Room) handleLeave(m leaveMsg) {
	st := that.seatOf(m.identity)
	if st == nil {
		that.sendError(m.reply, apperror.ErrInvalidIdentity)
		return
	}

	wasPlaying := that.status == entity.StatusPlaying

	that.vacateSeat(st)

	opp := that.anySeat()
	if opp == nil {
		that.close()
		return
	}

	if wasPlaying {
		that.finishGame(opp.player.Symbol)
	}

	that.send(opp, EventPlayerLeft, playerLeftPayload{
		GameState:        that.state(),
		RemainingPlayers: that.entries(),
		GameStatus:       that.status,
		Reason:           ReasonLeave,
		PlayerID:         m.identity,
		Intentional:      m.intentional,
	})
}

func (that *Room) handleReconnect(m reconnectMsg) {
	st := that.seatBySymbol(m.symbol)
	if st == nil {
		that.sendError(m.sender, apperror.ErrInvalidIdentity)
		return
	}

	if st.player.IsAuthenticated() && st.player.UserID != m.userID {
		that.sendError(m.sender, apperror.ErrInvalidIdentity)
		return
	}

	if st.player.Connected && st.player.ID != m.identity {
		// The seat is live under another identity; refuse the takeover.
		that.sendError(m.sender, apperror.ErrInvalidIdentity)
		return
	}

	if old := st.player.ID; old != m.identity {
		that.registry.Release(old)
		that.unbindSession(old)
		st.player.ID = m.identity
		that.registry.Bind(m.identity, that)
		that.bindSession(m.identity)
	} else {
		// Same identity returning: the binding is still there, only the
		// grace timer needs to die.
		that.registry.Reconnected(m.identity)
	}

	st.player.Connected = true
	st.player.LastSeen = time.Now()
	st.sender = m.sender

	// Replay the authoritative state so the client is bit-identical with
	// the room.
	that.send(st, EventRoomJoined, roomJoinedPayload{
		RoomID:       that.id,
		Players:      that.entries(),
		PlayerSymbol: st.player.Symbol,
	})
	that.send(st, EventGameState, that.state())

	if that.status == entity.StatusPlaying {
		that.send(st, EventTurnTimerStart, turnTimerPayload{
			StartTime: that.turnStarted.UnixMilli(),
			Duration:  that.cfg.TurnDuration.Milliseconds(),
		})
	}

	that.logger.Info("player reconnected", "identity", m.identity, "symbol", m.symbol)
	that.saveSnapshot()
}

// close is the terminal transition. Seats, timers, registry bindings and
// the stored mirror are all torn down exactly once.
func (that *Room) close() {
	if that.status == entity.StatusClosed {
		return
	}

	that.status = entity.StatusClosed
	that.turnClock.cancel()
	that.announce.cancel()
	that.idle.cancel()

	for i, st := range that.seats {
		if st == nil {
			continue
		}
		that.registry.Release(st.player.ID)
		that.unbindSession(st.player.ID)
		that.seats[i] = nil
	}

	that.deleteSnapshot()

	if that.onClose != nil {
		that.onClose(that.id)
	}

	that.logger.Info("room closed")
}

func (that *Room) vacateSeat(st *seat) {
	for i, s := range that.seats {
		if s != st {
			continue
		}
		delete(that.votes, st.player.ID)
		that.registry.Release(st.player.ID)
		that.unbindSession(st.player.ID)
		that.seats[i] = nil
	}
}

func (that *Room) recordOutcomes(winner string) {
	if that.stats == nil {
		return
	}

	for _, st := range that.seats {
		if st == nil || !st.player.IsAuthenticated() {
			continue
		}

		outcome := entity.OutcomeDraw
		switch {
		case winner == "":
		case st.player.Symbol == winner:
			outcome = entity.OutcomeWin
		default:
			outcome = entity.OutcomeLoss
		}

		go func(userID, outcome string) {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()

			change, err := that.stats.Record(ctx, userID, outcome)
			if err != nil {
				that.logger.Error("failed to record game outcome", "userID", userID, "error", err)
				return
			}

			if change.LeveledUp {
				that.logger.Info("player leveled up", "userID", userID, "newLevel", change.NewLevel)
			}
		}(st.player.UserID, outcome)
	}
}

func (that *Room) state() entity.BoardState {
	gameOver := that.status == entity.StatusGameOver || that.status == entity.StatusClosed
	return entity.NewBoardState(that.board, that.turn, gameOver, that.winner)
}

func (that *Room) snapshot() entity.RoomSnapshot {
	players := make([]*entity.Player, 0, maxSeats)
	for _, st := range that.seats {
		if st == nil {
			continue
		}
		player := *st.player
		players = append(players, &player)
	}

	return entity.RoomSnapshot{
		ID:      that.id,
		Status:  that.status,
		State:   that.state(),
		MoveSeq: that.moveSeq,
		Players: players,
	}
}

func (that *Room) seatOf(identity string) *seat {
	for _, st := range that.seats {
		if st != nil && st.player.ID == identity {
			return st
		}
	}

	return nil
}

func (that *Room) seatBySymbol(symbol string) *seat {
	for _, st := range that.seats {
		if st != nil && st.player.Symbol == symbol {
			return st
		}
	}

	return nil
}

func (that *Room) anySeat() *seat {
	for _, st := range that.seats {
		if st != nil {
			return st
		}
	}

	return nil
}

func (that *Room) seatCount() int {
	count := 0
	for _, st := range that.seats {
		if st != nil {
			count++
		}
	}

	return count
}

func (that *Room) entries() []entity.PlayerEntry {
	players := make([]*entity.Player, 0, maxSeats)
	for _, st := range that.seats {
		if st != nil {
			players = append(players, st.player)
		}
	}

	return entity.PlayerEntries(players)
}

func (that *Room) entriesExcept(identity string) []entity.PlayerEntry {
	players := make([]*entity.Player, 0, maxSeats)
	for _, st := range that.seats {
		if st != nil && st.player.ID != identity {
			players = append(players, st.player)
		}
	}

	return entity.PlayerEntries(players)
}

func (that *Room) broadcast(event string, data any) {
	for _, st := range that.seats {
		if st == nil || !st.player.Connected {
			continue
		}
		that.send(st, event, data)
	}
}

func (that *Room) send(st *seat, event string, data any) {
	if st == nil || st.sender == nil {
		return
	}

	if err := st.sender.Send(event, data); err != nil {
		that.logger.Error("failed to send event", "event", event, "identity", st.player.ID, "error", err)
	}
}

func (that *Room) sendError(to Sender, err error) {
	if to == nil {
		return
	}

	if sendErr := to.Send(EventError, err.Error()); sendErr != nil {
		that.logger.Error("failed to send error response", "error", sendErr)
	}
}

func (that *Room) bindSession(identity string) {
	if that.sessions == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := that.sessions.BindPlayer(ctx, identity, that.id); err != nil {
			that.logger.Error("failed to bind player session", "identity", identity, "error", err)
		}
	}()
}

func (that *Room) unbindSession(identity string) {
	if that.sessions == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := that.sessions.UnbindPlayer(ctx, identity); err != nil {
			that.logger.Error("failed to unbind player session", "identity", identity, "error", err)
		}
	}()
}

func (that *Room) saveSnapshot() {
	if that.sessions == nil {
		return
	}

	snap := that.snapshot()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := that.sessions.SaveRoom(ctx, &snap); err != nil {
			that.logger.Error("failed to save room snapshot", "error", err)
		}
	}()
}

func (that *Room) deleteSnapshot() {
	if that.sessions == nil {
		return
	}

	id := that.id

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := that.sessions.DeleteRoom(ctx, id); err != nil {
			that.logger.Error("failed to delete room snapshot", "error", err)
		}
	}()
}
