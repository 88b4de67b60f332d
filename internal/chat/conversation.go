package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/sportsdesk/internal/domain"
	"github.com/ashureev/sportsdesk/internal/provider"
	"github.com/ashureev/sportsdesk/internal/shared"
)

// SystemInstruction is the assistant persona.
const SystemInstruction = `You are Hank's Sports Assistant. Address the user as "Hank."
You have a fun, Gen Z personality, kinda sassy, and you use modern slang.
You are OBSESSED with the Indianapolis Colts and Oklahoma City Thunder. Prioritize news about them and show strong bias.
Keep responses short, witty, and humorous. You can cover local (Peru, Kokomo), Indiana state, and national sports.
Downplay or make sarcastic remarks about other teams, especially rivals of Colts or Thunder.
If you use Google Search for information, list the source URIs. Format them clearly.
If Hank asks for something not sports related, playfully steer him back to sports.`

// Greetings and inline error texts.
const (
	GreetingActive        = "Yo Hank! What's the latest? Spill the tea on Colts or Thunder, or ask me anything sports, my dude!"
	GreetingNoCredential  = "Can't chat rn, Hank. API key's MIA or acting up. Tell Chris to fix it!"
	GreetingServiceFailed = "Can't chat rn, Hank. Looks like a problem: Chat service isn't working. Tell Chris to check it!"
)

// ErrEmptyMessage rejects blank requester input.
var ErrEmptyMessage = errors.New("message is required")

// DefaultSessionOptions is the chat setup used by the service: the persona
// with search augmentation and a zero reasoning budget.
func DefaultSessionOptions(model string) SessionOptions {
	budget := int32(0)
	return SessionOptions{
		Model:          model,
		Instruction:    SystemInstruction,
		Tools:          []provider.Tool{{Search: true}},
		ThinkingBudget: &budget,
	}
}

// Conversation is an append-only transcript driven through one Manager.
type Conversation struct {
	ID string

	mgr    *Manager
	opts   SessionOptions
	log    ConversationLogger
	now    func() time.Time
	newID  func() string
	mu     sync.Mutex
	turns  []domain.ChatTurn
	errMsg string
	seen   time.Time
}

// NewConversation creates a conversation; Start must be called before Send.
func NewConversation(id string, mgr *Manager, opts SessionOptions, log ConversationLogger) *Conversation {
	if log == nil {
		log = NoopConversationLogger{}
	}
	c := &Conversation{
		ID:    id,
		mgr:   mgr,
		opts:  opts,
		log:   log,
		now:   mgr.now,
		newID: mgr.newID,
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	c.seen = c.now()
	return c
}

// Start opens the chat session if needed and appends a greeting describing
// the outcome. It returns the transcript.
func (c *Conversation) Start(ctx context.Context) []domain.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = c.now()

	if c.mgr.Active() {
		c.errMsg = ""
		return c.transcriptLocked()
	}

	greeting := GreetingActive
	if _, err := c.mgr.CreateSession(ctx, c.opts); err != nil {
		c.mgr.logger.Warn("Failed to start chat", "conversation_id", c.ID, "error", err)
		if errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
			greeting = GreetingNoCredential
			c.errMsg = shared.APIKeyErrorMessage
		} else {
			greeting = GreetingServiceFailed
			c.errMsg = "Failed to start chat: " + err.Error()
		}
		if n := len(c.turns); n > 0 && c.turns[n-1].Text == greeting {
			return c.transcriptLocked()
		}
	} else {
		c.errMsg = ""
	}
	c.appendLocked(domain.ChatTurn{
		ID:        c.newID(),
		Text:      greeting,
		Sender:    domain.SenderAssistant,
		Timestamp: c.now(),
		Failed:    greeting != GreetingActive,
	}, "chat_greeting")
	return c.transcriptLocked()
}

// Send appends the requester turn and then either the assistant reply or a
// single bot-styled error turn. The returned turns are the ones appended. The
// error, when set, is the underlying failure; later sends are still allowed.
func (c *Conversation) Send(ctx context.Context, text string) ([]domain.ChatTurn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = c.now()

	if !c.mgr.Active() {
		c.errMsg = shared.APIKeyErrorMessage + " Cannot send message."
		return nil, shared.ErrSessionNotInitialized
	}

	start := len(c.turns)
	c.appendLocked(domain.ChatTurn{
		ID:        c.newID(),
		Text:      text,
		Sender:    domain.SenderRequester,
		Timestamp: c.now(),
	}, "chat_user_message")

	reply, err := c.mgr.SendTurn(ctx, text)
	if err != nil {
		msg := fmt.Sprintf("Bruh, error: %s. Try again later?", err.Error())
		c.errMsg = msg
		if errors.Is(err, shared.ErrCredentialMissingOrInvalid) {
			msg = shared.APIKeyErrorMessage + " Message failed."
			c.errMsg = shared.APIKeyErrorMessage
		}
		c.appendLocked(domain.ChatTurn{
			ID:        c.newID(),
			Text:      msg,
			Sender:    domain.SenderAssistant,
			Timestamp: c.now(),
			Failed:    true,
		}, "chat_error")
		return c.copyFrom(start), err
	}

	c.errMsg = ""
	c.appendLocked(reply, "chat_assistant_message")
	return c.copyFrom(start), nil
}

// Transcript returns a copy of every turn so far.
func (c *Conversation) Transcript() []domain.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptLocked()
}

// LastError is the banner text for the most recent failure, or empty.
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Active reports whether the conversation has a live session.
func (c *Conversation) Active() bool {
	return c.mgr.Active()
}

// LastSeen returns when the conversation was last started or sent to.
func (c *Conversation) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen
}

func (c *Conversation) appendLocked(turn domain.ChatTurn, eventType string) {
	c.turns = append(c.turns, turn)
	c.log.Log(ConversationLogEvent{
		Timestamp:      turn.Timestamp.UTC().Format(time.RFC3339Nano),
		ConversationID: c.ID,
		TurnID:         turn.ID,
		Sender:         string(turn.Sender),
		EventType:      eventType,
		ContentRaw:     turn.Text,
		Sources:        len(turn.Sources),
	})
}

func (c *Conversation) transcriptLocked() []domain.ChatTurn {
	return c.copyFrom(0)
}

func (c *Conversation) copyFrom(i int) []domain.ChatTurn {
	out := make([]domain.ChatTurn, len(c.turns)-i)
	copy(out, c.turns[i:])
	return out
}
