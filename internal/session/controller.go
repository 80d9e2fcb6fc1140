// Package session runs the active-study state machine: one timed session
// at a time, with asynchronous resource suggestions that never block a
// stop or cancel.
package session

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VictorPerezCardoso/cotes/internal/ai"
	"github.com/VictorPerezCardoso/cotes/internal/model"
)

// State is the controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateActive
)

// TopicHistory answers whether a topic has been studied before. The
// history ledger satisfies it.
type TopicHistory interface {
	HasTopic(topic string) bool
}

// Controller owns the active session exclusively. At stop time the
// finished session transfers out by value; nothing else may mutate it
// while it is active.
type Controller struct {
	gateway ai.Gateway
	history TopicHistory

	mu             sync.Mutex
	state          State
	active         *model.StudySession
	elapsedSeconds int
	paused         bool

	suggestions    []model.Resource
	suggestErr     error
	suggestPending bool

	// generation stamps each start/stop transition. Results carrying a
	// stale generation are discarded, never merged into newer state.
	generation int

	clockStop chan struct{}
}

// NewController creates an idle controller.
func NewController(gateway ai.Gateway, history TopicHistory) *Controller {
	return &Controller{gateway: gateway, history: history}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a timed session on the topic and kicks off the resource
// suggestion fetch in the background. Valid only from Idle.
func (c *Controller) Start(ctx context.Context, topic string) error {
	if model.NormalizeTopic(topic) == "" {
		return &model.ValidationError{Field: "topic", Reason: "topic must not be empty"}
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return &model.ValidationError{Field: "state", Reason: "a session is already active"}
	}
	c.state = StateActive
	c.active = &model.StudySession{
		ID:        uuid.NewString(),
		Topic:     topic,
		StartTime: time.Now(),
		Resources: []model.Resource{},
	}
	c.elapsedSeconds = 0
	c.paused = false
	c.suggestions = nil
	c.suggestErr = nil
	c.suggestPending = true
	c.generation++
	gen := c.generation
	c.startClockLocked()
	c.mu.Unlock()

	go c.fetchSuggestions(ctx, topic, gen)
	return nil
}

// Pause stops the clock. No-op unless Active and running.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.paused {
		return
	}
	c.paused = true
	c.stopClockLocked()
}

// Resume re-arms the clock after a pause.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || !c.paused {
		return
	}
	c.paused = false
	c.startClockLocked()
}

// Paused reports whether the clock is paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Elapsed returns whole seconds accumulated while Active and unpaused.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.elapsedSeconds) * time.Second
}

// Topic returns the active session's topic, or "" when Idle.
func (c *Controller) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.Topic
}

// AddResource attaches a suggestion to the active session. Adding a URI
// that is already attached is a no-op; the return value reports whether
// the session changed.
func (c *Controller) AddResource(r model.Resource) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.active.HasResource(r.URI) {
		return false
	}
	c.active.Resources = append(c.active.Resources, r)
	return true
}

// SavedResources returns the resources attached so far.
func (c *Controller) SavedResources() []model.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	out := make([]model.Resource, len(c.active.Resources))
	copy(out, c.active.Resources)
	return out
}

// Suggestions returns the fetched suggestion list, whether a fetch is
// still in flight, and the fetch error if it failed. A failed fetch
// leaves the session usable with an empty list.
func (c *Controller) Suggestions() ([]model.Resource, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Resource, len(c.suggestions))
	copy(out, c.suggestions)
	return out, c.suggestPending, c.suggestErr
}

// Stop ends the active session: stamps the end time, rounds the elapsed
// clock to whole minutes, and picks the quiz difficulty. Hard is chosen
// only when the topic already appears in history and at least one
// resource was saved this session. The finished session transfers to
// the caller by value and the controller returns to Idle.
func (c *Controller) Stop() (model.StudySession, model.Difficulty, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return model.StudySession{}, "", &model.ValidationError{Field: "state", Reason: "no active session to stop"}
	}

	end := time.Now()
	finished := c.active.Clone()
	finished.EndTime = &end
	finished.DurationMinutes = int(math.Round(float64(c.elapsedSeconds) / 60))

	difficulty := model.DifficultyNormal
	if c.history != nil && c.history.HasTopic(finished.Topic) && len(finished.Resources) > 0 {
		difficulty = model.DifficultyHard
	}

	c.resetLocked()
	return finished, difficulty, nil
}

// Cancel discards the active session without recording anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.stopClockLocked()
	c.state = StateIdle
	c.active = nil
	c.elapsedSeconds = 0
	c.paused = false
	c.suggestions = nil
	c.suggestErr = nil
	c.suggestPending = false
	c.generation++
}

func (c *Controller) fetchSuggestions(ctx context.Context, topic string, gen int) {
	resources, err := c.gateway.SuggestResources(ctx, topic)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// The session this fetch belonged to has ended or been
		// replaced. Drop the result.
		return
	}
	c.suggestPending = false
	c.suggestions = resources
	c.suggestErr = err
}

// startClockLocked arms the one-second clock. Exactly one clock
// goroutine runs at a time; pause, stop and cancel tear it down.
func (c *Controller) startClockLocked() {
	stop := make(chan struct{})
	c.clockStop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.advanceClock(1)
			}
		}
	}()
}

func (c *Controller) stopClockLocked() {
	if c.clockStop != nil {
		close(c.clockStop)
		c.clockStop = nil
	}
}

// advanceClock adds whole seconds to the running total. The guard makes
// a late tick after pause or stop harmless.
func (c *Controller) advanceClock(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.paused {
		return
	}
	c.elapsedSeconds += seconds
}
