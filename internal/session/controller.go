// Package session hosts the controllers that own live room state. A
// controller applies transitions through the engine, synchronously and
// only locally for pass-and-play rooms, optimistically with
// fire-and-forget replication for networked rooms.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/engine"
	"github.com/modularwolf/impostergame.io/internal/replication"
)

// codeAttempts bounds the collision retry loop at room creation
const codeAttempts = 10

// Session-level errors
var (
	ErrNoRoom       = errors.New("no active room")
	ErrLocalSession = errors.New("not available in a pass-and-play session")
	ErrCodeTaken    = errors.New("could not find a free room code")
)

// Controller owns one room state instance and exposes the player
// action surface to the presentation layer. In networked mode each
// connected device runs its own controller; they reconcile through
// whole-state snapshots on the replication channel, last write wins.
type Controller struct {
	id      string
	mode    domain.Mode
	eng     *engine.Engine
	codes   *domain.CodeGenerator
	channel replication.Channel
	policy  Policy
	logger  *slog.Logger
	onState func(*domain.Room)

	mu      sync.RWMutex
	room    *domain.Room
	sub     replication.Subscription
	actorID string
	pushSeq uint64

	// pushMu serializes channel writes; pushedSeq is the sequence of
	// the newest snapshot that reached the channel. Both guarded by
	// pushMu, not mu.
	pushMu    sync.Mutex
	pushedSeq uint64
}

// NewController creates a controller for one device. channel must be
// nil for local mode and non-nil for networked mode.
func NewController(mode domain.Mode, eng *engine.Engine, codes *domain.CodeGenerator, channel replication.Channel, policy Policy, logger *slog.Logger) *Controller {
	if policy == nil {
		if mode == domain.ModeLocal {
			policy = AllowAll()
		} else {
			policy = HostOnly()
		}
	}
	return &Controller{
		id:      uuid.New().String(),
		mode:    mode,
		eng:     eng,
		codes:   codes,
		channel: channel,
		policy:  policy,
		logger:  logger,
	}
}

// SetOnState registers a callback invoked with a fresh snapshot after
// every state change, local or remote. Used by the transport layer to
// push updates to its client.
func (c *Controller) SetOnState(fn func(*domain.Room)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// ActorID returns the ID of the player this controller acts for
func (c *Controller) ActorID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actorID
}

// Mode returns the controller's execution mode
func (c *Controller) Mode() domain.Mode {
	return c.mode
}

// CreateRoom creates a room with the caller as host and first player.
// In networked mode the initial state is pushed and the controller
// subscribes to remote updates for the room code.
func (c *Controller) CreateRoom(hostName string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, err := c.freeCode()
	if err != nil {
		return nil, err
	}

	hostID := uuid.New().String()
	room := c.eng.CreateRoom(code, c.mode, hostID, hostName)
	room.WriterID = c.id
	c.actorID = hostID

	if c.channel != nil {
		// The initial write is synchronous: until the record exists,
		// nobody can join by code.
		if err := c.channel.Put(code, room); err != nil {
			c.actorID = ""
			return nil, err
		}
		c.pushSeq++
		c.pushMu.Lock()
		c.pushedSeq = c.pushSeq
		c.pushMu.Unlock()
		if err := c.subscribe(code); err != nil {
			return nil, err
		}
	}

	c.room = room
	c.notifyLocked()
	return room.Clone(), nil
}

// JoinRoom joins an existing networked room by code, adding the caller
// as a new player. Unknown codes are reported, no state is created.
func (c *Controller) JoinRoom(code, name string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return nil, ErrLocalSession
	}

	remote, err := c.channel.Get(code)
	if err != nil {
		return nil, err
	}

	playerID := uuid.New().String()
	next, err := c.eng.Join(remote, playerID, name)
	if err != nil {
		return nil, err
	}
	c.actorID = playerID

	if err := c.subscribe(code); err != nil {
		return nil, err
	}

	return c.applyLocked(next), nil
}

// Resume reattaches a controller to a room the player is already in,
// for example after a dropped connection. No transition is applied.
func (c *Controller) Resume(code, playerID string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return nil, ErrLocalSession
	}

	remote, err := c.channel.Get(code)
	if err != nil {
		return nil, err
	}
	if !remote.HasPlayer(playerID) {
		return nil, domain.ErrPlayerNotFound
	}
	c.actorID = playerID

	if err := c.subscribe(code); err != nil {
		return nil, err
	}

	c.room = remote
	c.notifyLocked()
	return remote.Clone(), nil
}

// AddPlayer adds another player to the current room. Pass-and-play
// rooms use it to seat everyone on the one device.
func (c *Controller) AddPlayer(name string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	next, err := c.eng.Join(c.room, uuid.New().String(), name)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// ToggleReady flips the ready flag for a player in the lobby
func (c *Controller) ToggleReady(playerID string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	next, err := c.eng.ToggleReady(c.room, playerID)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// StartRound starts a round, drawing the secret word from the given
// category or using the custom word if supplied. Subject to policy.
func (c *Controller) StartRound(categoryID, customWord string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}
	if err := c.policy(c.actorID, ActionStartRound, c.room); err != nil {
		return nil, err
	}

	next, err := c.eng.StartRound(c.room, categoryID, customWord)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// MarkRoleSeen records that a player has viewed their role during
// pass-and-play role reveal
func (c *Controller) MarkRoleSeen(playerID string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	next, err := c.eng.MarkRoleSeen(c.room, playerID)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// SubmitClue submits a clue for the acting player. In pass-and-play
// the device operator submits on behalf of whoever holds the turn.
func (c *Controller) SubmitClue(word string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	playerID := c.actorID
	if c.mode == domain.ModeLocal {
		current, err := c.room.CurrentPlayer()
		if err != nil {
			return nil, err
		}
		playerID = current.ID
	}

	next, err := c.eng.SubmitClue(c.room, playerID, word)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// CastVote records the acting player's vote. Pass-and-play rooms cast
// a single overwritable group vote for the table's consensus.
func (c *Controller) CastVote(targetID string) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	voterID := c.actorID
	if c.mode == domain.ModeLocal {
		voterID = domain.GroupVoterID
	}

	next, err := c.eng.CastVote(c.room, voterID, targetID)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// Reveal moves the room to the reveal stage, subject to the networked
// vote threshold
func (c *Controller) Reveal() (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}
	if err := c.policy(c.actorID, ActionReveal, c.room); err != nil {
		return nil, err
	}

	next, err := c.eng.Reveal(c.room)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// Result derives the vote outcome for the current round
func (c *Controller) Result() (*domain.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}
	return c.room.ComputeResult()
}

// NextRound returns the room to the lobby for another round. Subject
// to policy.
func (c *Controller) NextRound() (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}
	if err := c.policy(c.actorID, ActionNextRound, c.room); err != nil {
		return nil, err
	}

	next, err := c.eng.NextRound(c.room)
	if err != nil {
		return nil, err
	}
	return c.applyLocked(next), nil
}

// LeaveRoom tears down the subscription and returns this device to the
// landing stage. Leaving is local: the shared record is not touched,
// so the rest of the table plays on.
func (c *Controller) LeaveRoom() *domain.Room {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unsubscribeLocked()

	if c.room == nil {
		c.room = &domain.Room{Stage: domain.StageLanding, Mode: c.mode, Votes: make(domain.Votes)}
	} else {
		c.room = c.eng.Reset(c.room)
	}
	c.actorID = ""
	c.notifyLocked()
	return c.room.Clone()
}

// Snapshot returns a copy of the controller's current room state
func (c *Controller) Snapshot() (*domain.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}
	return c.room.Clone(), nil
}

// View returns the room as the given player is allowed to see it:
// other players' roles stay hidden until reveal, and the secret word
// is withheld from the imposter.
func (c *Controller) View(playerID string) (*domain.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.room == nil {
		return nil, ErrNoRoom
	}

	return Redact(c.room.Clone(), playerID), nil
}

// Redact strips from a snapshot what the given player must not see:
// other players' roles stay hidden until reveal, and the secret word
// is withheld from the imposter. The snapshot is modified in place and
// returned.
func Redact(view *domain.Room, playerID string) *domain.Room {
	if view.Stage == domain.StageReveal {
		return view
	}

	viewer, err := view.GetPlayer(playerID)
	viewerIsImposter := err == nil && viewer.IsImposter()

	for i := range view.Players {
		if view.Players[i].ID != playerID {
			view.Players[i].Role = domain.RoleUnassigned
		}
	}
	if viewerIsImposter && view.Round != nil {
		view.Round.SecretWord = ""
	}
	return view
}

// applyLocked installs the next state, replicates it if networked and
// notifies the presentation layer. Caller must hold c.mu. The push is
// fire-and-forget: a failure is logged and the optimistic local state
// stands until the next successful sync.
func (c *Controller) applyLocked(next *domain.Room) *domain.Room {
	next.WriterID = c.id
	c.room = next

	if c.channel != nil && next.Code != "" {
		c.pushSeq++
		go c.push(c.pushSeq, next.Clone())
	}

	c.notifyLocked()
	return next.Clone()
}

// push writes one snapshot to the channel. Pushes are sequenced per
// controller: a snapshot older than the newest one already written is
// discarded, so two rapid actions can never leave the shared record on
// the earlier state. Remote peers skip this controller's echoes, so a
// regression here would never be corrected.
func (c *Controller) push(seq uint64, snapshot *domain.Room) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	if seq <= c.pushedSeq {
		return
	}

	if err := c.channel.Put(snapshot.Code, snapshot); err != nil {
		c.logger.Error("state push failed",
			"code", snapshot.Code, "stage", snapshot.Stage, "error", err)
		return
	}
	c.pushedSeq = seq
}

// onRemote applies a snapshot received from the replication channel,
// replacing local state wholesale. The echo of this controller's own
// writes is skipped.
func (c *Controller) onRemote(state *domain.Room) {
	if state.WriterID == c.id {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A stale delivery after leaving the room is ignored.
	if c.room == nil || c.room.Code != state.Code {
		return
	}

	c.room = state
	c.notifyLocked()
}

// subscribe attaches the remote update feed for a code. Caller must
// hold c.mu.
func (c *Controller) subscribe(code string) error {
	c.unsubscribeLocked()
	sub, err := c.channel.Subscribe(code, c.onRemote)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

func (c *Controller) unsubscribeLocked() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
}

// notifyLocked hands a fresh snapshot to the registered state callback.
// Caller must hold c.mu.
func (c *Controller) notifyLocked() {
	if c.onState != nil && c.room != nil {
		c.onState(c.room.Clone())
	}
}

// freeCode generates a room code, retrying against the channel so live
// rooms are not silently merged. Collisions after the retry budget are
// reported, not papered over.
func (c *Controller) freeCode() (string, error) {
	if c.channel == nil {
		return c.codes.Generate(), nil
	}

	for i := 0; i < codeAttempts; i++ {
		code := c.codes.Generate()
		if _, err := c.channel.Get(code); errors.Is(err, domain.ErrRoomNotFound) {
			return code, nil
		}
	}
	return "", ErrCodeTaken
}
