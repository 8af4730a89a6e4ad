package chat

import (
	"context"
	_ "embed"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPrompt string

const (
	// WelcomeID is the ID of the seed message every session starts with
	WelcomeID model.MessageID = "welcome"

	WelcomeText  = "Hello! I'm SproutSage. Whether you're dealing with a wilting fern or planning a prize-winning rose garden, I'm here to help. What's on your mind?"
	FallbackText = "I'm sorry, I encountered an error. Could you try asking that again?"
)

type EventKind int

const (
	// EventAdded means a message was appended to the transcript
	EventAdded EventKind = iota
	// EventUpdated means the text of an existing message changed
	EventUpdated
)

// Event reports one transcript change. Message is a copy taken at the time
// of the change.
type Event struct {
	Kind    EventKind
	Message model.ChatMessage
}

// Session is one conversation with the gardening assistant. Only one Send may
// be in flight at a time.
type Session struct {
	gemini adapter.Gemini
	now    func() time.Time

	mu       sync.Mutex
	messages []*model.ChatMessage
	contents []*genai.Content
	query    string
	sending  bool

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option is a functional option for Session
type Option func(*Session)

// WithClock sets the time source for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Start opens a session whose transcript holds only the welcome message
func Start(gemini adapter.Gemini, opts ...Option) *Session {
	s := &Session{
		gemini: gemini,
		now:    time.Now,
		subs:   make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.messages = []*model.ChatMessage{
		{
			ID:        WelcomeID,
			Role:      model.RoleModel,
			Text:      WelcomeText,
			Timestamp: s.now().UnixMilli(),
		},
	}

	return s
}

// Send posts text and streams the reply into the transcript. The user message
// and an empty reply are appended at once; each fragment is then appended to
// the reply. If the reply fails, the transcript gets the fallback apology and
// the returned error wraps model.ErrChatReply. Sending clears the search query.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return goerr.Wrap(model.ErrValidation, "message is empty")
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return goerr.Wrap(model.ErrBusy, "a reply is still streaming")
	}
	s.sending = true
	s.query = ""
	history := s.contents
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	s.add(model.RoleUser, text)
	reply := s.add(model.RoleModel, "")

	userContent := genai.NewContentFromText(text, genai.RoleUser)
	history, received, err := s.stream(ctx, history, userContent, reply)
	if err != nil {
		logging.From(ctx).Warn("chat reply failed", "error", err, "received", received)
		s.fallback(reply, received)
		return goerr.Wrap(model.ErrChatReply, "failed to get chat reply", goerr.V("error", err.Error()))
	}

	s.mu.Lock()
	s.contents = append(history, userContent, genai.NewContentFromText(reply.Text, genai.RoleModel))
	s.mu.Unlock()

	return nil
}

// stream requests the reply and appends fragments to reply. A token limit
// error before any fragment arrives shrinks the history and retries once.
// It returns the history actually used.
func (s *Session) stream(ctx context.Context, history []*genai.Content, userContent *genai.Content, reply *model.ChatMessage) ([]*genai.Content, int, error) {
	received, err := s.streamOnce(ctx, history, userContent, reply)
	if err == nil || received > 0 || !isTokenLimitError(err) {
		return history, received, err
	}

	logging.From(ctx).Info("conversation is too long, shrinking history", "contents", len(history))
	history = shrinkHistory(ctx, s.gemini, history)
	received, err = s.streamOnce(ctx, history, userContent, reply)
	return history, received, err
}

func (s *Session) streamOnce(ctx context.Context, history []*genai.Content, userContent *genai.Content, reply *model.ChatMessage) (int, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, userContent)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
	}

	received := 0
	for resp, err := range s.gemini.GenerateContentStream(ctx, contents, config) {
		if err != nil {
			return received, err
		}

		fragment := responseText(resp)
		if fragment == "" {
			continue
		}
		received++
		s.appendText(reply, fragment)
	}

	if received == 0 {
		return 0, goerr.New("reply has no text")
	}
	return received, nil
}

// fallback puts the apology in place of an empty reply, or after a partial one
func (s *Session) fallback(reply *model.ChatMessage, received int) {
	if received == 0 {
		s.mu.Lock()
		reply.Text = FallbackText
		ev := Event{Kind: EventUpdated, Message: *reply}
		s.mu.Unlock()
		s.publish(ev)
		return
	}
	s.add(model.RoleModel, FallbackText)
}

func (s *Session) add(role model.Role, text string) *model.ChatMessage {
	msg := &model.ChatMessage{
		ID:        model.NewMessageID(),
		Role:      role,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	ev := Event{Kind: EventAdded, Message: *msg}
	s.mu.Unlock()

	s.publish(ev)
	return msg
}

func (s *Session) appendText(msg *model.ChatMessage, fragment string) {
	s.mu.Lock()
	msg.Text += fragment
	ev := Event{Kind: EventUpdated, Message: *msg}
	s.mu.Unlock()

	s.publish(ev)
}

// responseText joins the text parts of the first candidate, skipping thoughts
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// Sending reports whether a reply is streaming
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Messages returns a copy of the transcript in order
func (s *Session) Messages() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]model.ChatMessage, len(s.messages))
	for i, m := range s.messages {
		msgs[i] = *m
	}
	return msgs
}

// Filter returns the messages whose text contains query, ignoring case. A
// blank query returns every message. The transcript is not changed.
func (s *Session) Filter(query string) []model.ChatMessage {
	return Filter(s.Messages(), query)
}

// SetQuery sets the search query used by View
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// Query returns the current search query
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// View returns the transcript filtered by the current query
func (s *Session) View() []model.ChatMessage {
	return s.Filter(s.Query())
}

// AutoScroll reports whether the view should follow new messages. It is off
// while a search query is set.
func (s *Session) AutoScroll() bool {
	return s.Query() == ""
}

// Subscribe registers fn to receive transcript changes. Callbacks run on the
// sending goroutine. The returned function unregisters fn.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) publish(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Filter returns the messages whose text contains query, ignoring case, in
// their original order
func Filter(messages []model.ChatMessage, query string) []model.ChatMessage {
	if strings.TrimSpace(query) == "" {
		return messages
	}

	q := strings.ToLower(query)
	matched := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Text), q) {
			matched = append(matched, m)
		}
	}
	return matched
}
