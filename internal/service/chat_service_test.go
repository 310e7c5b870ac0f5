package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/internal/dto"
	"github.com/ashebbar-dev/Ojas-EB/internal/entity"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/specification"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/fusion"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/planner"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank"
	"github.com/ashebbar-dev/Ojas-EB/pkg/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.ChatSession
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[uuid.UUID]*entity.ChatSession)}
}

func (r *stubSessionRepo) Create(_ context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Id] = session
	return nil
}

func (r *stubSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.sessions[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *stubSessionRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatSession, error) {
	return nil, nil
}

type stubMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.ChatMessage
}

func (r *stubMessageRepo) Create(_ context.Context, message *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *stubMessageRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages, nil
}

// scriptedLLM answers the planner with a fixed decomposition and streams a
// scripted token sequence on generation.
type scriptedLLM struct {
	planOutput   string
	chatOutput   string
	streamTokens []string
	chatErr      error
}

func (s *scriptedLLM) Generate(context.Context, string, ...llm.Option) (string, error) {
	return s.planOutput, nil
}

func (s *scriptedLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return s.chatOutput, s.chatErr
}

func (s *scriptedLLM) ChatStream(_ context.Context, _ []llm.Message, observe llm.TokenObserver, _ ...llm.Option) (string, error) {
	if s.chatErr != nil {
		return "", s.chatErr
	}
	var full strings.Builder
	for _, token := range s.streamTokens {
		full.WriteString(token)
		observe(token)
	}
	return full.String(), nil
}

type stubSearchExecutor struct {
	records []search.RetrievalRecord
}

func (s *stubSearchExecutor) Execute(_ context.Context, query search.SubQuery) search.TrackSearchResult {
	return search.TrackSearchResult{
		Query:    query.Text,
		SearchID: query.ID,
		Records:  s.records,
	}
}

type stubFusionReranker struct{}

func (stubFusionReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]rerank.Result, error) {
	results := make([]rerank.Result, 0, len(documents))
	for i := range documents {
		if len(results) == topN {
			break
		}
		results = append(results, rerank.Result{Index: i, RelevanceScore: 0.9})
	}
	return results, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	exchanges []dto.ChatExchangeMessage
}

func (p *recordingPublisher) PublishExchange(_ context.Context, exchange dto.ChatExchangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges = append(p.exchanges, exchange)
	return nil
}

func (p *recordingPublisher) published() []dto.ChatExchangeMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.ChatExchangeMessage(nil), p.exchanges...)
}

func newTestChatService(llmProvider llm.LLMProvider, executor search.SearchExecutor, publisher IPublisherService) (IChatService, *stubSessionRepo, *memory.SessionRepository) {
	sessionRepo := newStubSessionRepo()
	memoryRepo := memory.NewSessionRepository()

	svc := NewChatService(
		sessionRepo,
		&stubMessageRepo{},
		memoryRepo,
		planner.NewPlanner(llmProvider, noopLogger{}),
		search.NewFanOut(executor, noopLogger{}),
		fusion.NewFuser(stubFusionReranker{}, noopLogger{}, fusion.DefaultConfig()),
		llmProvider,
		publisher,
		nil,
		noopLogger{},
		noopLogger{},
	)
	return svc, sessionRepo, memoryRepo
}

func passageRecords() []search.RetrievalRecord {
	return []search.RetrievalRecord{
		{ID: uuid.New(), Content: "Webhooks retry three times.", PageTitle: "Webhooks", Similarity: 0.8, RerankScore: 0.9},
	}
}

func TestNewChat_CreatesSessionAndMemory(t *testing.T) {
	svc, sessionRepo, memoryRepo := newTestChatService(&scriptedLLM{}, &stubSearchExecutor{}, &recordingPublisher{})

	chatID, err := svc.NewChat(context.Background())
	require.NoError(t, err)

	parsed, err := uuid.Parse(chatID)
	require.NoError(t, err)
	assert.NotNil(t, sessionRepo.sessions[parsed])

	_, found := memoryRepo.Get(chatID)
	assert.True(t, found)
}

func TestAsk_ReturnsTextAfterMarker(t *testing.T) {
	provider := &scriptedLLM{
		planOutput: `["webhook retries"]`,
		chatOutput: "Reasoning about the passages.\nFinal Answer: Webhooks are retried three times.",
	}
	publisher := &recordingPublisher{}
	svc, _, memoryRepo := newTestChatService(provider, &stubSearchExecutor{records: passageRecords()}, publisher)

	chatID, err := svc.NewChat(context.Background())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), chatID, "How often are webhooks retried?")
	require.NoError(t, err)

	assert.Equal(t, "Webhooks are retried three times.", resp.Answer)
	assert.Equal(t, chatID, resp.ChatID)

	history, _ := memoryRepo.Get(chatID)
	turns := history.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, turns[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, turns[1].Role)
	assert.Equal(t, resp.Answer, turns[1].Content)

	exchanges := publisher.published()
	require.Len(t, exchanges, 1)
	assert.Equal(t, resp.Answer, exchanges[0].Answer)
}

func TestAsk_MissingMarkerFallsBackToApology(t *testing.T) {
	provider := &scriptedLLM{
		planOutput: `["webhook retries"]`,
		chatOutput: "The model rambled and never concluded.",
	}
	svc, _, _ := newTestChatService(provider, &stubSearchExecutor{records: passageRecords()}, &recordingPublisher{})

	chatID, err := svc.NewChat(context.Background())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), chatID, "How often are webhooks retried?")
	require.NoError(t, err)
	assert.Equal(t, constant.GenerationFailureApology, resp.Answer)
}

func TestAsk_NothingRetrievedSkipsGeneration(t *testing.T) {
	provider := &scriptedLLM{planOutput: `["unknown topic"]`}
	svc, _, _ := newTestChatService(provider, &stubSearchExecutor{}, &recordingPublisher{})

	chatID, err := svc.NewChat(context.Background())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), chatID, "Something not in the knowledge base?")
	require.NoError(t, err)
	assert.Equal(t, constant.NotFoundAnswer, resp.Answer)
}

func TestAsk_UnknownChatIDFails(t *testing.T) {
	svc, _, _ := newTestChatService(&scriptedLLM{}, &stubSearchExecutor{}, &recordingPublisher{})

	_, err := svc.Ask(context.Background(), uuid.NewString(), "anything")
	assert.Error(t, err)
}

func collectEvents(t *testing.T, relay *stream.Relay) []stream.Event {
	t.Helper()
	var events []stream.Event
	err := relay.Run(func(e stream.Event) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)
	return events
}

func TestAskStream_GatesTokensAndFinishes(t *testing.T) {
	provider := &scriptedLLM{
		planOutput:   `["webhook retries"]`,
		streamTokens: []string{"Thinking it over. ", "Final Answer:", " Webhooks retry ", "three times."},
	}
	publisher := &recordingPublisher{}
	svc, _, _ := newTestChatService(provider, &stubSearchExecutor{records: passageRecords()}, publisher)

	relay := stream.NewRelay(constant.AnswerMarker, 10*time.Millisecond, noopLogger{})
	chatID := uuid.NewString()

	go svc.AskStream(context.Background(), chatID, "How often are webhooks retried?", relay)
	events := collectEvents(t, relay)

	var answer strings.Builder
	var statuses []string
	for _, e := range events {
		switch e.Type {
		case "answer":
			answer.WriteString(e.Chunk)
		case "status":
			statuses = append(statuses, e.Status)
		}
	}

	assert.Equal(t, " Webhooks retry three times.", answer.String())
	assert.NotContains(t, answer.String(), "Thinking it over")

	require.NotEmpty(t, statuses)
	assert.Equal(t, "thinking", statuses[0])
	assert.Equal(t, "finished", statuses[len(statuses)-1])
	assert.Contains(t, statuses, "searching")
	assert.Contains(t, statuses, "answering")

	exchanges := publisher.published()
	require.Len(t, exchanges, 1)
	assert.Equal(t, "Webhooks retry three times.", exchanges[0].Answer)
}

func TestAskStream_GenerationFailureStreamsApology(t *testing.T) {
	provider := &scriptedLLM{
		planOutput: `["webhook retries"]`,
		chatErr:    errors.New("provider unavailable"),
	}
	svc, _, _ := newTestChatService(provider, &stubSearchExecutor{records: passageRecords()}, &recordingPublisher{})

	relay := stream.NewRelay(constant.AnswerMarker, 10*time.Millisecond, noopLogger{})
	go svc.AskStream(context.Background(), uuid.NewString(), "anything", relay)
	events := collectEvents(t, relay)

	var answer strings.Builder
	for _, e := range events {
		if e.Type == "answer" {
			answer.WriteString(e.Chunk)
		}
	}
	assert.Equal(t, constant.GenerationFailureApology, answer.String())
	assert.Equal(t, "finished", events[len(events)-1].Status)
}

func TestAskStream_NothingRetrievedStreamsNotFound(t *testing.T) {
	provider := &scriptedLLM{planOutput: `["unknown topic"]`}
	svc, _, _ := newTestChatService(provider, &stubSearchExecutor{}, &recordingPublisher{})

	relay := stream.NewRelay(constant.AnswerMarker, 10*time.Millisecond, noopLogger{})
	go svc.AskStream(context.Background(), uuid.NewString(), "anything", relay)
	events := collectEvents(t, relay)

	var answer strings.Builder
	for _, e := range events {
		if e.Type == "answer" {
			answer.WriteString(e.Chunk)
		}
	}
	assert.Equal(t, constant.NotFoundAnswer, answer.String())
}
