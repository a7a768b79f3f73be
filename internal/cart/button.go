package cart

import (
	"sync"
	"time"
)

// SettleDelay is how long a button shows its outcome before going idle.
const SettleDelay = 2 * time.Second

// Affordance is the control that triggered a mutation. A nil Affordance is
// allowed everywhere and does nothing.
type Affordance interface {
	// Begin moves the control to pending. It returns false when the control
	// is already busy and the click should be ignored.
	Begin() bool
	Succeed()
	Fail()
}

type ButtonState int

const (
	Idle ButtonState = iota
	Pending
	Succeeded
	Failed
)

func (s ButtonState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "success"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Labels are the texts a button shows in each state.
type Labels struct {
	Idle    string
	Pending string
	Success string
	Error   string
}

var (
	AddLabels      = Labels{Idle: "Add to Cart", Pending: "Adding...", Success: "✓ Added!", Error: "Error"}
	QuantityLabels = Labels{Idle: "", Pending: "...", Success: "✓", Error: "!"}
	RemoveLabels   = Labels{Idle: "Remove", Pending: "Removing...", Success: "✓ Removed", Error: "Remove"}
	CheckoutLabels = Labels{Idle: "Place Order", Pending: "Processing...", Success: "✓ Order Placed!", Error: "Place Order"}
)

// Button walks idle -> pending -> success|error -> idle. The outcome state is
// left automatically after the settle delay, so a button never stays
// disabled.
type Button struct {
	mu       sync.Mutex
	state    ButtonState
	labels   Labels
	settle   time.Duration
	timer    *time.Timer
	onChange func(ButtonState, string)
}

// NewButton creates an idle button. onChange, when set, is called after every
// transition, outside the button's lock.
func NewButton(labels Labels, settle time.Duration, onChange func(ButtonState, string)) *Button {
	return &Button{labels: labels, settle: settle, onChange: onChange}
}

func (b *Button) State() ButtonState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label(b.state)
}

// Disabled reports whether clicks are currently ignored.
func (b *Button) Disabled() bool {
	return b.State() != Idle
}

func (b *Button) Begin() bool {
	b.mu.Lock()
	if b.state != Idle {
		b.mu.Unlock()
		return false
	}
	b.state = Pending
	b.mu.Unlock()
	b.notify(Pending)
	return true
}

func (b *Button) Succeed() {
	b.finish(Succeeded)
}

func (b *Button) Fail() {
	b.finish(Failed)
}

// Stop cancels a pending settle and returns the button to idle at once.
func (b *Button) Stop() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	changed := b.state != Idle
	b.state = Idle
	b.mu.Unlock()
	if changed {
		b.notify(Idle)
	}
}

func (b *Button) finish(outcome ButtonState) {
	b.mu.Lock()
	if b.state != Pending {
		b.mu.Unlock()
		return
	}
	b.state = outcome
	b.timer = time.AfterFunc(b.settle, b.reset)
	b.mu.Unlock()
	b.notify(outcome)
}

func (b *Button) reset() {
	b.mu.Lock()
	if b.state != Succeeded && b.state != Failed {
		b.mu.Unlock()
		return
	}
	b.state = Idle
	b.timer = nil
	b.mu.Unlock()
	b.notify(Idle)
}

func (b *Button) notify(s ButtonState) {
	if b.onChange == nil {
		return
	}
	b.mu.Lock()
	label := b.label(s)
	b.mu.Unlock()
	b.onChange(s, label)
}

func (b *Button) label(s ButtonState) string {
	switch s {
	case Pending:
		return b.labels.Pending
	case Succeeded:
		return b.labels.Success
	case Failed:
		return b.labels.Error
	default:
		return b.labels.Idle
	}
}

type noAffordance struct{}

func (noAffordance) Begin() bool { return true }
func (noAffordance) Succeed()    {}
func (noAffordance) Fail()       {}

func affordanceOrNop(a Affordance) Affordance {
	if a == nil {
		return noAffordance{}
	}
	return a
}
