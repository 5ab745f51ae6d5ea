package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/studiobot/bot/access"
	"github.com/m3rciful/studiobot/bot/controlplane"
	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/bot/route"
	"github.com/m3rciful/studiobot/bot/store"
)

const adminID = 1

type fixture struct {
	h       *Handlers
	repo    *store.Repository
	machine *conversation.Machine
	posts   *fakeGenerator
	stamper *fakeStamper
	agent   *fakeAgent
	fetches atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := store.New(store.NewJSONBackend(t.TempDir()), []int64{adminID})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(repo.Close)
	f := &fixture{
		repo:    repo,
		machine: conversation.NewMachine(),
		posts:   &fakeGenerator{text: "Generated post"},
		stamper: &fakeStamper{ready: true},
		agent:   &fakeAgent{},
	}
	h, err := New(Deps{
		Store:     repo,
		Machine:   f.machine,
		Posts:     f.posts,
		Stamper:   f.stamper,
		Agent:     f.agent,
		IsAdmin:   func(id int64) bool { return id == adminID },
		MaxPhotos: 3,
		Workers:   2,
		Fetch: func(_ tele.Context, file *tele.File) ([]byte, error) {
			f.fetches.Add(1)
			return []byte(file.FileID), nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	f.h = h
	return f
}

func admin() *tele.User { return &tele.User{ID: adminID, Username: "boss"} }

func TestAddEventConversation(t *testing.T) {
	f := newFixture(t)
	c := newMessage(admin(), "/add_event")
	if err := f.h.Command(route.AddEvent)(c); err != nil {
		t.Fatalf("add_event: %v", err)
	}
	if c.lastText() != conversation.PromptEventTitle {
		t.Fatalf("expected title prompt, got %q", c.lastText())
	}

	replies := []struct{ text, prompt string }{
		{"Concert", conversation.PromptEventDescription},
		{"Live music", conversation.PromptEventDate},
		{"01.01.2026", fmt.Sprintf(textEventCreated, "1")},
	}
	for _, r := range replies {
		if !f.h.InProgress(adminID) {
			t.Fatalf("form ended before %q", r.text)
		}
		msg := newMessage(admin(), r.text)
		if err := f.h.ManagerHandler(msg); err != nil {
			t.Fatalf("reply %q: %v", r.text, err)
		}
		if msg.lastText() != r.prompt {
			t.Fatalf("after %q expected %q, got %q", r.text, r.prompt, msg.lastText())
		}
	}

	if f.h.InProgress(adminID) {
		t.Fatalf("state not back to idle")
	}
	events := f.repo.ListEvents(context.Background())
	if len(events) != 1 {
		t.Fatalf("expected one event, got %+v", events)
	}
	ev := events[0]
	if ev.Title != "Concert" || ev.Description != "Live music" || ev.Date != "01.01.2026" || ev.Creator != "boss" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventRepliesAreVerbatim(t *testing.T) {
	f := newFixture(t)
	_ = f.h.Dispatch(newMessage(admin(), ""), route.Request{Action: route.AddEvent})
	for _, text := range []string{"  spaced  ", "/not-a-command", "whenever <b>"} {
		if err := f.h.ManagerHandler(newMessage(admin(), text)); err != nil {
			t.Fatalf("ManagerHandler: %v", err)
		}
	}
	ev := f.repo.ListEvents(context.Background())[0]
	if ev.Title != "  spaced  " || ev.Description != "/not-a-command" || ev.Date != "whenever <b>" {
		t.Fatalf("answers altered: %+v", ev)
	}
}

func TestDeniedUserHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	gate := access.NewGate(f.repo, []int64{adminID})
	stranger := &tele.User{ID: 99, Username: "stranger"}

	for _, a := range []route.Action{route.AddEvent, route.Post, route.Events, route.Admit} {
		c := newMessage(stranger, "/"+a.String()+" someone")
		if err := gate.Middleware(f.h.Command(a))(c); err != nil {
			t.Fatalf("%s: %v", a, err)
		}
		if got := c.texts(); len(got) != 1 || got[0] != access.DenialText {
			t.Fatalf("%s: expected only the denial, got %v", a, got)
		}
	}
	if f.h.InProgress(99) {
		t.Fatalf("denied user got a conversation state")
	}
	if len(f.repo.ListEvents(context.Background())) != 0 || len(f.repo.Whitelist(context.Background()).Users) != 0 {
		t.Fatalf("denied user changed stored data")
	}
}

func TestPostGeneration(t *testing.T) {
	f := newFixture(t)
	_ = f.h.Dispatch(newMessage(admin(), "/post"), route.Request{Action: route.Post})
	c := newMessage(admin(), "spring sale")
	if err := f.h.ManagerHandler(c); err != nil {
		t.Fatalf("ManagerHandler: %v", err)
	}
	if f.posts.topic != "spring sale" || c.lastText() != "Generated post" {
		t.Fatalf("topic=%q reply=%q", f.posts.topic, c.lastText())
	}
	if f.h.InProgress(adminID) {
		t.Fatalf("post form should end after the topic")
	}
}

func TestPostGenerationFailureApologises(t *testing.T) {
	f := newFixture(t)
	f.posts.err = errors.New("quota")
	_ = f.h.Dispatch(newMessage(admin(), "/post"), route.Request{Action: route.Post})
	c := newMessage(admin(), "x")
	if err := f.h.ManagerHandler(c); err != nil {
		t.Fatalf("collaborator failure escaped: %v", err)
	}
	if c.lastText() != textPostFailed {
		t.Fatalf("expected apology, got %q", c.lastText())
	}
}

func TestNewFormOverwritesStaleOne(t *testing.T) {
	f := newFixture(t)
	_ = f.h.Dispatch(newMessage(admin(), ""), route.Request{Action: route.AddEvent})
	_ = f.h.ManagerHandler(newMessage(admin(), "half done"))
	_ = f.h.Dispatch(newMessage(admin(), ""), route.Request{Action: route.Post})
	if _, ok := f.machine.Current(adminID).(conversation.AwaitingPostTopic); !ok {
		t.Fatalf("expected post form, got %s", f.machine.Current(adminID).Name())
	}
}

func TestCancelForm(t *testing.T) {
	f := newFixture(t)
	_ = f.h.Dispatch(newMessage(admin(), ""), route.Request{Action: route.AddEvent})
	c := newCallback(admin(), route.FormCancel.Key(), "")
	if err := f.h.Callback(route.FormCancel)(c); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.h.InProgress(adminID) {
		t.Fatalf("form still active")
	}
	if len(c.edited) != 1 || c.edited[0] != textFormCancelled {
		t.Fatalf("unexpected edit %v", c.edited)
	}

	c = newMessage(admin(), "/cancel")
	_ = f.h.Command(route.Cancel)(c)
	if c.lastText() != textNothingCancel {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
}

func TestIdleTextIsIgnored(t *testing.T) {
	f := newFixture(t)
	c := newMessage(admin(), "hello there")
	if err := f.h.ManagerHandler(c); err != nil {
		t.Fatalf("ManagerHandler: %v", err)
	}
	if err := f.h.UnknownText()(c); err != nil {
		t.Fatalf("UnknownText: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("idle text answered: %v", c.sent)
	}
	c = newMessage(admin(), "/nope")
	_ = f.h.UnknownText()(c)
	if c.lastText() != textUnknownCommand {
		t.Fatalf("unknown command not answered: %v", c.sent)
	}
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B"} {
		if _, err := f.repo.CreateEvent(ctx, store.EventFields{Title: title}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	c := newMessage(admin(), "/delete_event 7")
	_ = f.h.Command(route.DeleteEvent)(c)
	if c.lastText() != fmt.Sprintf(textEventNotFound, "7") {
		t.Fatalf("unexpected reply %q", c.lastText())
	}

	cb := newCallback(admin(), route.EventDelete.Key(), "1")
	if err := f.h.Callback(route.EventDelete)(cb); err != nil {
		t.Fatalf("delete callback: %v", err)
	}
	if len(cb.responses) != 1 {
		t.Fatalf("callback not answered")
	}
	events := f.repo.ListEvents(ctx)
	if len(events) != 1 || events[0].Title != "B" {
		t.Fatalf("unexpected events %+v", events)
	}

	c = newMessage(admin(), "/delete_event")
	_ = f.h.Command(route.DeleteEvent)(c)
	if c.lastText() != textDeleteUsage {
		t.Fatalf("expected usage, got %q", c.lastText())
	}
}

func TestListEventsEscapesHTML(t *testing.T) {
	got := RenderEvents([]store.Event{{ID: "1", Title: "<Party>", Date: "Fri & Sat"}})
	if !strings.Contains(got, "&lt;Party&gt;") || !strings.Contains(got, "Fri &amp; Sat") {
		t.Fatalf("not escaped: %s", got)
	}
}

func TestMediaCommands(t *testing.T) {
	f := newFixture(t)
	c := newMessage(admin(), "/add_media Logo pack | Vector logos")
	if err := f.h.Command(route.AddMedia)(c); err != nil {
		t.Fatalf("add_media: %v", err)
	}
	if c.lastText() != textMediaAdded {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
	got := f.repo.SearchMedia(context.Background(), "vector")
	if len(got) != 1 || got[0].Name != "Logo pack" || got[0].AddedBy != "boss" {
		t.Fatalf("unexpected media %+v", got)
	}

	c = newMessage(admin(), "/media LOGO")
	_ = f.h.Command(route.Media)(c)
	if !strings.Contains(c.lastText(), "Logo pack") {
		t.Fatalf("search reply missing entry: %q", c.lastText())
	}

	c = newMessage(admin(), "/add_media  | only description")
	_ = f.h.Command(route.AddMedia)(c)
	if c.lastText() != textMediaUsage {
		t.Fatalf("expected usage, got %q", c.lastText())
	}
}

func TestAdmitCommand(t *testing.T) {
	f := newFixture(t)
	c := newMessage(admin(), "/admit @Alice")
	_ = f.h.Command(route.Admit)(c)
	if c.lastText() != fmt.Sprintf(textAdmitted, "alice") {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
	c = newMessage(admin(), "/admit alice")
	_ = f.h.Command(route.Admit)(c)
	if c.lastText() != fmt.Sprintf(textAlreadyAdmit, "alice") {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
	if !f.repo.IsAdmitted(context.Background(), "alice") {
		t.Fatalf("alice not admitted")
	}
}

func TestRestartReflectsAgentAnswer(t *testing.T) {
	f := newFixture(t)
	f.agent.res = controlplane.Result{OK: false, Message: "busy"}
	c := newCallback(admin(), route.RestartConfirm.Key(), "")
	if err := f.h.Callback(route.RestartConfirm)(c); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if f.agent.calls != 1 || c.lastText() != "❌ busy" {
		t.Fatalf("calls=%d reply=%q", f.agent.calls, c.lastText())
	}

	f.agent.err = fmt.Errorf("%w: timed out", controlplane.ErrRequest)
	c = newCallback(admin(), route.RestartConfirm.Key(), "")
	_ = f.h.Callback(route.RestartConfirm)(c)
	if f.agent.calls != 2 || !strings.HasPrefix(c.lastText(), "❌ Restart request failed") {
		t.Fatalf("calls=%d reply=%q", f.agent.calls, c.lastText())
	}
}

func TestRestartReply(t *testing.T) {
	cases := []struct {
		ok   bool
		msg  string
		want string
	}{
		{true, "done", "✅ done"},
		{true, "", textRestartOK},
		{false, "nope", "❌ nope"},
		{false, " ", textRestartRefused},
	}
	for _, tc := range cases {
		if got := RestartReply(tc.ok, tc.msg); got != tc.want {
			t.Fatalf("RestartReply(%v, %q) = %q, want %q", tc.ok, tc.msg, got, tc.want)
		}
	}
}

func TestDispatchUnhandledCallback(t *testing.T) {
	f := newFixture(t)
	c := newCallback(admin(), "bogus", "")
	if err := f.h.Dispatch(c, route.ParseCallback("bogus", "")); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(c.responses) != 1 || c.responses[0].Text != textUnsupported {
		t.Fatalf("unexpected responses %+v", c.responses)
	}
}

func TestIdentity(t *testing.T) {
	if Identity(&tele.User{ID: 5, Username: "x"}) != "x" || Identity(&tele.User{ID: 5}) != "5" {
		t.Fatalf("unexpected identity")
	}
}
