// Package conversation models the multi-step forms a user can be walked through.
//
// A user is in exactly one State. Transition is a pure function from the
// current state and a free-text reply to the next state plus the effects the
// caller must carry out. Machine stores the per-user state and is the only
// writer of it.
package conversation

// State is the closed set of conversation steps.
type State interface {
	// Name identifies the step in logs.
	Name() string
	isState()
}

// Idle means no form is in progress.
type Idle struct{}

// AwaitingPostTopic waits for the topic of a generated post.
type AwaitingPostTopic struct{}

// AwaitingEventTitle is the first step of the event form.
type AwaitingEventTitle struct{}

// AwaitingEventDescription holds the title while asking for a description.
type AwaitingEventDescription struct {
	Title string
}

// AwaitingEventDate holds title and description while asking for the date.
type AwaitingEventDate struct {
	Title       string
	Description string
}

func (Idle) Name() string                     { return "idle" }
func (AwaitingPostTopic) Name() string        { return "awaiting_post_topic" }
func (AwaitingEventTitle) Name() string       { return "awaiting_event_title" }
func (AwaitingEventDescription) Name() string { return "awaiting_event_description" }
func (AwaitingEventDate) Name() string        { return "awaiting_event_date" }

func (Idle) isState()                     {}
func (AwaitingPostTopic) isState()        {}
func (AwaitingEventTitle) isState()       {}
func (AwaitingEventDescription) isState() {}
func (AwaitingEventDate) isState()        {}

// IsIdle reports whether s is nil or Idle.
func IsIdle(s State) bool {
	if s == nil {
		return true
	}
	_, ok := s.(Idle)
	return ok
}

// Effect is the closed set of actions a transition asks the caller to perform.
type Effect interface {
	isEffect()
}

// Prompt asks the user for the next answer.
type Prompt struct {
	Text string
}

// GeneratePost requests generated prose for Topic.
type GeneratePost struct {
	Topic string
}

// CreateEvent persists a completed event form.
type CreateEvent struct {
	Title       string
	Description string
	Date        string
}

func (Prompt) isEffect()       {}
func (GeneratePost) isEffect() {}
func (CreateEvent) isEffect()  {}
