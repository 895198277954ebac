package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"bioscope/internal/events"
	"bioscope/internal/logger"
	"bioscope/internal/testutils"
	"bioscope/pkg/biotypes"
)

// Sentinel errors for the conversation contract. These are the only failures
// SendMessage propagates to callers; gateway failures are recovered locally
// as flagged error turns in the transcript.
var (
	// ErrBusy is returned when a send is attempted while another is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrNoUser is returned when no authenticated user id can be resolved.
	ErrNoUser = errors.New("no authenticated user")
	// ErrEmptyMessage is returned when the prompt is empty after trimming.
	ErrEmptyMessage = errors.New("message text cannot be empty")
)

// FailedSendText is the generic transcript text for a transport-level send failure.
const FailedSendText = "Failed to send message"

// ConversationService owns the conversation state: the ordered message list,
// the busy flag, and the derived view state (articles, relationship graph,
// research gaps) computed from assistant answers. All mutation goes through
// SendMessage, ResetChat and GetMessagesHistorical; one instance serves the
// whole application.
type ConversationService struct {
	initialized bool
	testMode    bool

	gateway biotypes.ConversationGateway
	store   biotypes.SessionStore
	bus     *events.Bus
	log     *log.Logger

	mu           sync.Mutex
	busy         bool
	messages     []biotypes.Message
	lastResponse *biotypes.ResponsePayload
	articles     []biotypes.Article
	graph        *biotypes.RelationshipGraph
	gaps         []biotypes.ResearchGap
}

// NewConversationService creates a conversation service wired to its
// collaborators. Dependencies are injected here; Initialize only validates
// and arms the service.
func NewConversationService(gateway biotypes.ConversationGateway, store biotypes.SessionStore, bus *events.Bus) *ConversationService {
	return &ConversationService{
		gateway: gateway,
		store:   store,
		bus:     bus,
		log:     logger.NewStyledLogger("Conversation"),
	}
}

// Name returns the service name "conversation" for registration.
func (c *ConversationService) Name() string {
	return "conversation"
}

// Initialize sets up the ConversationService for operation.
func (c *ConversationService) Initialize() error {
	if c.gateway == nil {
		return fmt.Errorf("conversation service requires a gateway")
	}
	if c.store == nil {
		return fmt.Errorf("conversation service requires a session store")
	}
	c.initialized = true
	c.log.Debug("ConversationService initialized")
	return nil
}

// SetTestMode switches ID and timestamp generation to deterministic values.
func (c *ConversationService) SetTestMode(testMode bool) {
	c.testMode = testMode
}

// SendMessage submits one user turn and appends the assistant's answer (or a
// flagged error turn) to the transcript.
//
// The user message is appended optimistically before the network round trip,
// so it is always visible ahead of the system turn that answers it. Exactly
// one send may be in flight at a time; a second call returns ErrBusy rather
// than racing the first (the transcript would otherwise interleave
// unpredictably). An error return means nothing was appended.
func (c *ConversationService) SendMessage(ctx context.Context, userText string) (*biotypes.Message, error) {
	if !c.initialized {
		return nil, fmt.Errorf("conversation service not initialized")
	}

	prompt := strings.TrimSpace(userText)
	if prompt == "" {
		return nil, ErrEmptyMessage
	}

	userID, ok := c.store.GetUserID()
	if !ok {
		return nil, ErrNoUser
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	historicalID, hadHistorical := c.store.GetHistoricalID()
	c.appendLocked(biotypes.Message{
		ID:        testutils.GenerateUUID(c.testMode),
		Text:      userText,
		Sender:    biotypes.SenderUser,
		Timestamp: testutils.GetCurrentTime(c.testMode),
	})
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	logger.ServiceOperation("conversation", "send_message", "starting")

	result, err := c.gateway.Send(ctx, prompt, userID, historicalID)
	if err != nil {
		c.log.Error("Send failed", "error", err, "user_id", userID)
		return c.appendSystemError(FailedSendText), nil
	}

	if !result.Success {
		text := result.Error
		if text == "" {
			text = FailedSendText
		}
		c.log.Warn("Assistant rejected the prompt", "error", result.Error)
		return c.appendSystemError(text), nil
	}

	payload := result.Response
	answer := payload.AnswerText()

	systemMsg := biotypes.Message{
		ID:        testutils.GenerateUUID(c.testMode),
		Text:      answer,
		Sender:    biotypes.SenderSystem,
		Timestamp: testutils.GetCurrentTime(c.testMode),
		RawData:   payload,
	}
	if payload != nil {
		systemMsg.Articles = payload.RelatedArticles
	}

	c.mu.Lock()
	c.appendLocked(systemMsg)
	c.lastResponse = payload
	c.applyDerivedLocked(payload)
	c.mu.Unlock()

	c.adoptHistoricalID(ctx, result.HistoricalID, hadHistorical, answer, userID)

	logger.ServiceOperation("conversation", "send_message", "completed")
	return &systemMsg, nil
}

// ResetChat clears the transcript, all derived state, and the persisted
// conversation id. Idempotent; userID is untouched.
func (c *ConversationService) ResetChat() error {
	if !c.initialized {
		return fmt.Errorf("conversation service not initialized")
	}

	c.mu.Lock()
	c.messages = nil
	c.lastResponse = nil
	c.articles = nil
	c.graph = nil
	c.gaps = nil
	c.mu.Unlock()

	if err := c.store.ClearHistoricalID(); err != nil {
		return fmt.Errorf("failed to clear conversation id: %w", err)
	}

	c.emitHistoryInvalidated("")
	c.log.Debug("Conversation reset")
	return nil
}

// GetMessagesHistorical takes over the active conversation with the given
// historical record: the id is persisted as current, derived state is cleared
// up front so stale articles or graphs never show while loading, and the
// transcript is rebuilt from the persisted turns exactly as if each answer
// had just arrived. Derived state comes from the most recent system turn that
// carries it. A fetch failure logs and returns an empty slice, leaving the
// already-cleared state as is.
func (c *ConversationService) GetMessagesHistorical(ctx context.Context, historicalID string) ([]biotypes.Message, error) {
	if !c.initialized {
		return nil, fmt.Errorf("conversation service not initialized")
	}
	if historicalID == "" {
		return nil, fmt.Errorf("historical id cannot be empty")
	}

	if err := c.store.SetHistoricalID(historicalID); err != nil {
		return nil, fmt.Errorf("failed to persist conversation id: %w", err)
	}

	c.mu.Lock()
	c.lastResponse = nil
	c.articles = nil
	c.graph = nil
	c.gaps = nil
	c.mu.Unlock()

	entries, err := c.gateway.FetchHistoricalMessages(ctx, historicalID)
	if err != nil {
		c.log.Error("Failed to load historical conversation", "historical_id", historicalID, "error", err)
		return []biotypes.Message{}, nil
	}

	messages := make([]biotypes.Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, c.formatHistoricalEntry(entry))
	}

	c.mu.Lock()
	c.messages = messages
	// Most recent system turn wins for each derived view.
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Sender != biotypes.SenderSystem || msg.RawData == nil {
			continue
		}
		if c.lastResponse == nil {
			c.lastResponse = msg.RawData
		}
		if c.articles == nil && len(msg.RawData.RelatedArticles) > 0 {
			c.articles = msg.RawData.RelatedArticles
		}
		if c.graph == nil {
			if repaired := msg.RawData.RelationshipGraph.Sanitize(); repaired.Usable() {
				c.graph = repaired
			}
		}
		if c.gaps == nil && len(msg.RawData.ResearchGaps) > 0 {
			c.gaps = msg.RawData.ResearchGaps
		}
	}
	result := make([]biotypes.Message, len(messages))
	copy(result, messages)
	c.mu.Unlock()

	c.emitHistoryInvalidated(historicalID)
	c.log.Debug("Historical conversation loaded", "historical_id", historicalID, "messages", len(messages))
	return result, nil
}

// ListHistory returns the authenticated user's persisted conversations for
// history-list consumers. Requires a resolvable user id.
func (c *ConversationService) ListHistory(ctx context.Context) ([]biotypes.HistoricalRecord, error) {
	if !c.initialized {
		return nil, fmt.Errorf("conversation service not initialized")
	}

	userID, ok := c.store.GetUserID()
	if !ok {
		return nil, ErrNoUser
	}
	return c.gateway.ListHistoricalRecords(ctx, userID)
}

// Messages returns a copy of the ordered transcript.
func (c *ConversationService) Messages() []biotypes.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]biotypes.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// IsBusy reports whether a send is in flight.
func (c *ConversationService) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Articles returns the current derived article list (from the latest answer
// that carried one).
func (c *ConversationService) Articles() []biotypes.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]biotypes.Article, len(c.articles))
	copy(result, c.articles)
	return result
}

// RelationshipGraph returns the current derived graph, or nil when the latest
// answer carried none that passed the validity gate. The returned graph is
// the core's own deep copy; consumers may mutate it freely.
func (c *ConversationService) RelationshipGraph() *biotypes.RelationshipGraph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph
}

// ResearchGaps returns the current derived research-gap list.
func (c *ConversationService) ResearchGaps() []biotypes.ResearchGap {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]biotypes.ResearchGap, len(c.gaps))
	copy(result, c.gaps)
	return result
}

// LastResponse returns the most recent full answer payload, or nil.
func (c *ConversationService) LastResponse() *biotypes.ResponsePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// appendLocked appends a message to the transcript. Must hold c.mu.
func (c *ConversationService) appendLocked(msg biotypes.Message) {
	c.messages = append(c.messages, msg)
}

// appendSystemError appends a flagged error turn. Derived state is untouched:
// a failed exchange must not disturb the articles or graph already on screen.
func (c *ConversationService) appendSystemError(text string) *biotypes.Message {
	msg := biotypes.Message{
		ID:        testutils.GenerateUUID(c.testMode),
		Text:      text,
		Sender:    biotypes.SenderSystem,
		Timestamp: testutils.GetCurrentTime(c.testMode),
		IsError:   true,
	}

	c.mu.Lock()
	c.appendLocked(msg)
	c.mu.Unlock()
	return &msg
}

// applyDerivedLocked replaces the derived view state from one answer payload.
// Must hold c.mu. The graph is deep-copied with dangling links repaired; a
// graph left without both nodes and links is discarded rather than stored
// half-empty.
func (c *ConversationService) applyDerivedLocked(payload *biotypes.ResponsePayload) {
	if payload == nil {
		c.articles = []biotypes.Article{}
		c.graph = nil
		c.gaps = nil
		return
	}

	c.articles = payload.RelatedArticles
	if c.articles == nil {
		c.articles = []biotypes.Article{}
	}

	if repaired := payload.RelationshipGraph.Sanitize(); repaired.Usable() {
		c.graph = repaired
	} else {
		c.graph = nil
	}

	c.gaps = payload.ResearchGaps
}

// adoptHistoricalID persists the conversation id for a brand-new conversation.
// When the server returned one, that wins; otherwise the core creates the
// record itself, naming it with a title summarized from the answer. Failures
// here are logged and swallowed; the exchange already succeeded, and the
// next send retries record creation from scratch.
func (c *ConversationService) adoptHistoricalID(ctx context.Context, returnedID string, hadHistorical bool, answer, userID string) {
	if hadHistorical {
		return
	}

	id := returnedID
	if id == "" {
		title, err := c.gateway.GenerateTitle(ctx, answer)
		if err != nil {
			c.log.Warn("Failed to generate conversation title", "error", err)
			return
		}
		id, err = c.gateway.CreateHistoricalRecord(ctx, title, userID)
		if err != nil {
			c.log.Warn("Failed to create historical record", "error", err)
			return
		}
	}
	if id == "" {
		return
	}

	if err := c.store.SetHistoricalID(id); err != nil {
		c.log.Error("Failed to persist conversation id", "historical_id", id, "error", err)
		return
	}

	c.emitHistoryInvalidated(id)
}

// formatHistoricalEntry maps one persisted turn to a transcript message,
// reconstructing Articles and RawData so a replayed answer renders exactly
// like a live one.
func (c *ConversationService) formatHistoricalEntry(entry biotypes.HistoricalEntry) biotypes.Message {
	msg := biotypes.Message{
		ID:        testutils.GenerateUUID(c.testMode),
		Text:      entry.Message,
		Sender:    biotypes.SenderSystem,
		Timestamp: testutils.GetCurrentTime(c.testMode),
	}
	if entry.Role == "User" {
		msg.Sender = biotypes.SenderUser
		return msg
	}

	if len(entry.RelatedArticles) > 0 || entry.RelationshipGraph != nil || len(entry.ResearchGaps) > 0 {
		msg.Articles = entry.RelatedArticles
		msg.RawData = &biotypes.ResponsePayload{
			Answer:            entry.Message,
			RelatedArticles:   entry.RelatedArticles,
			RelationshipGraph: entry.RelationshipGraph.Clone(),
			ResearchGaps:      entry.ResearchGaps,
		}
	}
	return msg
}

// emitHistoryInvalidated signals history-list consumers to refresh.
func (c *ConversationService) emitHistoryInvalidated(historicalID string) {
	if c.bus == nil {
		return
	}
	c.bus.Emit(events.Event{
		Kind:         events.HistoryInvalidated,
		HistoricalID: historicalID,
	})
}
