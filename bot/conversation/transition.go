package conversation

// Prompts sent when a form starts or advances.
const (
	PromptPostTopic        = "✍️ Send the topic of the post."
	PromptEventTitle       = "📝 Send the event title."
	PromptEventDescription = "📄 Now send the event description."
	PromptEventDate        = "📅 Now send the event date."
)

// Start returns the state a form begins in together with its first prompt.
func Start(s State) (State, Prompt) {
	switch s.(type) {
	case AwaitingPostTopic:
		return s, Prompt{Text: PromptPostTopic}
	case AwaitingEventTitle:
		return s, Prompt{Text: PromptEventTitle}
	default:
		return Idle{}, Prompt{}
	}
}

// Transition consumes one free-text reply.
// Text is taken verbatim at every step. consumed is false only for Idle,
// in which case the reply belongs to other handlers.
func Transition(s State, text string) (next State, effects []Effect, consumed bool) {
	switch st := s.(type) {
	case AwaitingPostTopic:
		return Idle{}, []Effect{GeneratePost{Topic: text}}, true
	case AwaitingEventTitle:
		return AwaitingEventDescription{Title: text},
			[]Effect{Prompt{Text: PromptEventDescription}}, true
	case AwaitingEventDescription:
		return AwaitingEventDate{Title: st.Title, Description: text},
			[]Effect{Prompt{Text: PromptEventDate}}, true
	case AwaitingEventDate:
		return Idle{}, []Effect{CreateEvent{Title: st.Title, Description: st.Description, Date: text}}, true
	case Idle, nil:
		return Idle{}, nil, false
	default:
		// A state this switch does not know. The reply is left to other
		// handlers and Machine.Feed drops the stray state.
		return Idle{}, nil, false
	}
}
