package handlers

import (
	"context"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/controlplane"
)

type fakeContext struct {
	tele.Context
	mu        sync.Mutex
	update    tele.Update
	store     map[string]any
	sent      []any
	edited    []any
	responses []*tele.CallbackResponse
}

func newMessage(user *tele.User, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{Text: text, Sender: user, Chat: &tele.Chat{ID: user.ID}}},
		store:  map[string]any{},
	}
}

func newCallback(user *tele.User, unique, data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			Sender:  user,
			Unique:  unique,
			Data:    data,
			Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: user.ID}},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Message() *tele.Message   { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	if f.update.Message != nil {
		return f.update.Message.Sender
	}
	return nil
}
func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message != nil {
		return f.update.Message.Chat
	}
	if f.update.Callback != nil && f.update.Callback.Message != nil {
		return f.update.Callback.Message.Chat
	}
	return nil
}
func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}
func (f *fakeContext) Get(k string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[k]
}
func (f *fakeContext) Set(k string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[k] = v
}
func (f *fakeContext) Send(what any, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) Edit(what any, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, what)
	return nil
}
func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, v := range f.sent {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeContext) lastText() string {
	t := f.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

type fakeGenerator struct {
	topic string
	text  string
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, topic string) (string, error) {
	g.topic = topic
	return g.text, g.err
}

type fakeStamper struct {
	mu    sync.Mutex
	ready bool
	calls int
	err   error
	panic any
}

func (s *fakeStamper) Ready() bool { return s.ready }
func (s *fakeStamper) Apply(src []byte) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panic != nil {
		panic(s.panic)
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("stamped:"), src...), nil
}

type fakeAgent struct {
	res   controlplane.Result
	err   error
	calls int
}

func (a *fakeAgent) Restart(context.Context) (controlplane.Result, error) {
	a.calls++
	return a.res, a.err
}
