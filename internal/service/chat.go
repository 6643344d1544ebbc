package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/stream"
)

// ErrSessionNotFound is returned when loading a chat id that is not in
// the history
var ErrSessionNotFound = errors.New("chat session not found")

// Gateway abstracts the relay transport that carries one conversation
// to the upstream provider and streams the reply back
type Gateway interface {
	Stream(ctx context.Context, messages []domain.Message, training bool) (io.ReadCloser, error)
}

// ChatService orchestrates one active conversation: it appends the user
// message optimistically, streams the assistant reply delta by delta,
// commits both on completion and rolls the turn back on transport
// failure. An unbound service works against the draft store until the
// first completed turn promotes the draft into a persisted session.
type ChatService struct {
	repo    domain.SessionRepository
	gateway Gateway
	titles  *TitleGenerator

	// titleThreshold is the message count up to which the session title
	// keeps being (re)generated. The exact value is a policy knob, not
	// a contract.
	titleThreshold int

	mu       sync.Mutex
	chatID   string
	messages []domain.Message
	state    domain.TurnState
}

// NewChatService creates a chat service seeded from the saved draft
func NewChatService(repo domain.SessionRepository, gateway Gateway, titles *TitleGenerator, titleThreshold int) *ChatService {
	if titleThreshold <= 0 {
		titleThreshold = 3
	}
	return &ChatService{
		repo:           repo,
		gateway:        gateway,
		titles:         titles,
		titleThreshold: titleThreshold,
		messages:       repo.SavedDraft(),
	}
}

// ChatID returns the bound session id, empty while working on a draft
func (s *ChatService) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Messages returns a snapshot of the current conversation
func (s *ChatService) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneMessages(s.messages)
}

// State returns the stream state and training track
func (s *ChatService) State() (domain.StreamState, domain.TrainingPhase, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phase, round := s.state.Training()
	return s.state.Stream(), phase, round
}

// Load binds the service to an existing session
func (s *ChatService) Load(id string) error {
	messages := s.repo.LoadMessages(id)
	if messages == nil {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() {
		return domain.ErrBusy
	}
	s.chatID = id
	s.messages = messages
	return nil
}

// StartNew resets the service to a fresh draft conversation. It is
// rejected with ErrBusy while a turn is in flight so the active stream
// keeps a stable conversation to write into.
func (s *ChatService) StartNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() {
		return domain.ErrBusy
	}
	s.chatID = ""
	s.messages = []domain.Message{domain.InitialAssistantMessage()}
	s.state = domain.TurnState{}
	s.repo.SaveDraft(s.messages)
	return nil
}

// Submit sends one user message and streams the assistant reply to
// completion
func (s *ChatService) Submit(ctx context.Context, text string) error {
	return s.submit(ctx, domain.NewUserMessage(text), false)
}

// SubmitScenario sends a scenario message: a full script or document
// attached for analysis, tagged so renderers can treat it specially
func (s *ChatService) SubmitScenario(ctx context.Context, text string) error {
	msg := domain.NewUserMessage(text)
	msg.IsScenario = true
	return s.submit(ctx, msg, false)
}

// SubmitTrainingCase starts the next training round and sends the case
// with the training persona. The round only advances once the
// submission is accepted, so a rejected case leaves no trace.
func (s *ChatService) SubmitTrainingCase(ctx context.Context, text string) error {
	return s.submit(ctx, domain.NewUserMessage(text), true)
}

// FinalizeTrainingCase marks the training track complete
func (s *ChatService) FinalizeTrainingCase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CompleteTraining()
}

func (s *ChatService) submit(ctx context.Context, user domain.Message, training bool) error {
	s.mu.Lock()
	if err := s.state.Begin(); err != nil {
		s.mu.Unlock()
		return err
	}
	if training {
		round := s.state.BeginTrainingRound()
		log.Debug().Int("round", round).Msg("training round started")
	}
	s.messages = append(s.messages, user)
	outbound := domain.CloneMessages(s.messages)
	s.mu.Unlock()

	s.persist(outbound)

	body, err := s.gateway.Stream(ctx, outbound, training)
	if err != nil {
		s.rollback(user.ID)
		return fmt.Errorf("upstream call failed: %w", err)
	}
	defer body.Close()

	s.mu.Lock()
	s.state.MarkStreaming()
	s.messages = append(s.messages, domain.NewAssistantMessage())
	idx := len(s.messages) - 1
	s.mu.Unlock()

	var in stream.Ingestor
	err = in.Consume(ctx, body, func(ev stream.Event) error {
		switch {
		case ev.Type == stream.EventMessageStart && ev.Message != nil && ev.Message.ID != "":
			s.mu.Lock()
			s.messages[idx].ID = ev.Message.ID
			s.mu.Unlock()
		case ev.Type == stream.EventRaw:
			// best-effort fallback: surfaced, never dropped silently
			log.Warn().Str("line", ev.Raw).Msg("unparsed stream line")
		default:
			if text, ok := ev.TextDelta(); ok {
				s.mu.Lock()
				s.messages[idx].Content += text
				s.mu.Unlock()
			}
		}
		return nil
	})
	if err != nil {
		s.rollback(user.ID)
		return fmt.Errorf("stream aborted: %w", err)
	}

	s.mu.Lock()
	for i := range s.messages {
		s.messages[i].Status = domain.StatusCommitted
	}
	final := domain.CloneMessages(s.messages)
	s.state.Finish()
	bound := s.chatID != ""
	s.mu.Unlock()

	if !bound {
		id := s.repo.Create(final, domain.DefaultChatTitle)
		s.repo.ClearDraft()
		s.mu.Lock()
		s.chatID = id
		s.mu.Unlock()
	} else {
		s.repo.UpdateMessages(s.chatID, final)
	}

	s.maybeRetitle(ctx, final)
	return nil
}

// rollback discards the optimistic user message and any partial
// assistant reply, restoring the persisted state
func (s *ChatService) rollback(userID string) {
	s.mu.Lock()
	kept := make([]domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID == userID {
			continue
		}
		if m.Role == domain.RoleAssistant && m.Status == domain.StatusTentative {
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	s.state.Fail()
	snapshot := domain.CloneMessages(kept)
	s.mu.Unlock()

	s.persist(snapshot)
}

func (s *ChatService) persist(messages []domain.Message) {
	s.mu.Lock()
	id := s.chatID
	s.mu.Unlock()

	if id == "" {
		s.repo.SaveDraft(messages)
		return
	}
	s.repo.UpdateMessages(id, messages)
}

// maybeRetitle regenerates the session title while the conversation is
// still short enough for the title to be unsettled
func (s *ChatService) maybeRetitle(ctx context.Context, messages []domain.Message) {
	if s.titles == nil || len(messages) > s.titleThreshold {
		return
	}

	hasUser := false
	hasReply := false
	for _, m := range messages {
		switch {
		case m.Role == domain.RoleUser:
			hasUser = true
		case m.Role == domain.RoleAssistant && m.ID != domain.InitialAssistantMessageID:
			hasReply = true
		}
	}
	if !hasUser || !hasReply {
		return
	}

	s.mu.Lock()
	id := s.chatID
	s.mu.Unlock()
	if id == "" {
		return
	}

	s.repo.UpdateTitle(id, s.titles.Generate(ctx, messages))
}
