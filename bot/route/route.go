// Package route names every command and button the bot understands.
//
// Action is a closed enum. ParseCommand and ParseCallback map raw input onto
// it and return Unhandled for anything else, so dispatch is a single switch.
package route

import "strings"

// Action is one command or callback variant.
type Action int

const (
	Unhandled Action = iota

	Start
	Help
	Post
	AddEvent
	Events
	DeleteEvent
	Media
	AddMedia
	Admit
	Restart
	Cancel

	MenuPost
	MenuEvents
	MenuMedia
	MenuAddEvent
	EventDelete
	RestartConfirm
	RestartCancel
	FormCancel
)

// Request is a parsed action with its argument (command payload or callback data).
type Request struct {
	Action Action
	Arg    string
}

// CommandSpec describes a slash command.
type CommandSpec struct {
	Name        string
	Action      Action
	Description string
	AdminOnly   bool
	Hidden      bool
}

// CallbackSpec describes an inline button key.
type CallbackSpec struct {
	Key       string
	Action    Action
	AdminOnly bool
}

// Commands lists every slash command in menu order.
var Commands = []CommandSpec{
	{Name: "/start", Action: Start, Description: "Main menu"},
	{Name: "/help", Action: Help, Description: "What the bot can do"},
	{Name: "/post", Action: Post, Description: "Generate a post"},
	{Name: "/events", Action: Events, Description: "Upcoming events"},
	{Name: "/media", Action: Media, Description: "Search the media directory"},
	{Name: "/cancel", Action: Cancel, Description: "Abandon the current form"},
	{Name: "/add_event", Action: AddEvent, Description: "Add an event", AdminOnly: true},
	{Name: "/delete_event", Action: DeleteEvent, Description: "Delete an event by id", AdminOnly: true},
	{Name: "/add_media", Action: AddMedia, Description: "Add a media entry: name | description", AdminOnly: true},
	{Name: "/admit", Action: Admit, Description: "Whitelist a user handle", AdminOnly: true},
	{Name: "/restart", Action: Restart, Description: "Restart the bot", AdminOnly: true},
}

// Callbacks lists every inline button key.
var Callbacks = []CallbackSpec{
	{Key: "menu.post", Action: MenuPost},
	{Key: "menu.events", Action: MenuEvents},
	{Key: "menu.media", Action: MenuMedia},
	{Key: "menu.add_event", Action: MenuAddEvent, AdminOnly: true},
	{Key: "event.delete", Action: EventDelete, AdminOnly: true},
	{Key: "restart.confirm", Action: RestartConfirm, AdminOnly: true},
	{Key: "restart.cancel", Action: RestartCancel, AdminOnly: true},
	{Key: "form.cancel", Action: FormCancel},
}

var (
	byCommand  = make(map[string]Action, len(Commands))
	byCallback = make(map[string]Action, len(Callbacks))
	names      = map[Action]string{Unhandled: "unhandled"}
)

func init() {
	for _, c := range Commands {
		byCommand[c.Name] = c.Action
		names[c.Action] = strings.TrimPrefix(c.Name, "/")
	}
	for _, c := range Callbacks {
		byCallback[c.Key] = c.Action
		names[c.Action] = c.Key
	}
}

// String returns the command name without slash or the callback key.
func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return "unhandled"
}

// AdminOnly reports whether the action is reserved for admins.
func (a Action) AdminOnly() bool {
	for _, c := range Commands {
		if c.Action == a {
			return c.AdminOnly
		}
	}
	for _, c := range Callbacks {
		if c.Action == a {
			return c.AdminOnly
		}
	}
	return false
}

// Key returns the callback key for a callback action, or "".
func (a Action) Key() string {
	for _, c := range Callbacks {
		if c.Action == a {
			return c.Key
		}
	}
	return ""
}

// ParseCommand parses "/name[@bot] [payload]". Text that is not a known
// command yields Unhandled with the whole text as Arg.
func ParseCommand(text string) Request {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Request{Action: Unhandled, Arg: text}
	}
	head, payload, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	action, ok := byCommand[strings.ToLower(head)]
	if !ok {
		return Request{Action: Unhandled, Arg: text}
	}
	return Request{Action: action, Arg: strings.TrimSpace(payload)}
}

// ParseCallback maps a callback key and payload onto an Action.
func ParseCallback(key, payload string) Request {
	action, ok := byCallback[strings.TrimSpace(key)]
	if !ok {
		return Request{Action: Unhandled, Arg: payload}
	}
	return Request{Action: action, Arg: payload}
}
