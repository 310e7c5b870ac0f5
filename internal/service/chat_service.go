package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/internal/dto"
	"github.com/ashebbar-dev/Ojas-EB/internal/entity"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/contract"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/specification"
	"github.com/ashebbar-dev/Ojas-EB/pkg/events"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/nats"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/dedup"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/fusion"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/history"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/planner"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/prompt"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/report"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
	"github.com/ashebbar-dev/Ojas-EB/pkg/stream"

	"github.com/google/uuid"
)

// IChatService is the question-answering pipeline: decompose, fan out,
// deduplicate, fuse, then generate an answer over the fused passages.
type IChatService interface {
	NewChat(ctx context.Context) (string, error)
	Ask(ctx context.Context, chatID string, query string) (*dto.AskResponse, error)
	AskStream(ctx context.Context, chatID string, query string, relay *stream.Relay)
	History(ctx context.Context, chatID string) ([]dto.ChatHistoryMessage, error)
}

type chatService struct {
	sessionRepo contract.ChatSessionRepository
	messageRepo contract.ChatMessageRepository
	memoryRepo  *memory.SessionRepository

	planner *planner.Planner
	fanOut  *search.FanOut
	fuser   *fusion.Fuser

	llmProvider llm.LLMProvider

	publisher     IPublisherService
	natsPublisher *nats.Publisher

	logger     logger.ILogger
	chatLogger logger.ILogger
}

func NewChatService(
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	memoryRepo *memory.SessionRepository,
	queryPlanner *planner.Planner,
	fanOut *search.FanOut,
	fuser *fusion.Fuser,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	natsPublisher *nats.Publisher,
	sysLogger logger.ILogger,
	chatLogger logger.ILogger,
) IChatService {
	return &chatService{
		sessionRepo:   sessionRepo,
		messageRepo:   messageRepo,
		memoryRepo:    memoryRepo,
		planner:       queryPlanner,
		fanOut:        fanOut,
		fuser:         fuser,
		llmProvider:   llmProvider,
		publisher:     publisher,
		natsPublisher: natsPublisher,
		logger:        sysLogger,
		chatLogger:    chatLogger,
	}
}

func (s *chatService) NewChat(ctx context.Context) (string, error) {
	session := &entity.ChatSession{
		Id:    uuid.New(),
		Title: "New Chat",
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create chat session: %w", err)
	}

	s.memoryRepo.GetOrCreate(session.Id.String())

	s.logger.Info("ChatService", "Chat session created", map[string]interface{}{
		"chat_id": session.Id.String(),
	})
	return session.Id.String(), nil
}

// retrieve runs the full retrieval half of the pipeline and reports what it
// found. Failed sub-query searches surface inside the report, never as an
// error: the answer degrades instead of the request failing.
func (s *chatService) retrieve(ctx context.Context, question string, turns []memory.Turn) ([]search.SubQuery, report.Report) {
	started := time.Now()

	queries := s.planner.Plan(ctx, question, turns)
	trackResults := s.fanOut.SearchAll(ctx, queries)
	agg := dedup.Merge(trackResults)
	fused := s.fuser.Fuse(ctx, queries, agg)
	rep := report.Build(queries, trackResults, agg, fused, time.Since(started))

	s.chatLogger.Info("ChatService", "Retrieval completed", map[string]interface{}{
		"sub_queries":   len(queries),
		"total_before":  rep.Summary.Dedup.TotalBefore,
		"unique_after":  rep.Summary.Dedup.UniqueAfter,
		"total_results": rep.TotalResults,
		"status":        rep.Status,
	})
	return queries, rep
}

func (s *chatService) Ask(ctx context.Context, chatID string, query string) (*dto.AskResponse, error) {
	chatID, err := s.ensureSession(ctx, chatID)
	if err != nil {
		return nil, err
	}

	sessionHistory := s.memoryRepo.GetOrCreate(chatID)
	priorTurns := sessionHistory.Turns()
	sessionHistory.Append(constant.ChatMessageRoleUser, query)

	queries, rep := s.retrieve(ctx, query, priorTurns)

	var answer string
	if rep.NotFound() {
		answer = constant.NotFoundAnswer
	} else {
		messages := prompt.AnswerMessages(history.Window(priorTurns, history.DefaultWindowPairs), rep, query)
		full, err := s.llmProvider.Chat(ctx, messages,
			llm.WithStop("\nObservation:", "Observation:"),
		)
		if err != nil {
			s.chatLogger.Error("ChatService", "Answer generation failed", map[string]interface{}{
				"chat_id": chatID,
				"error":   err.Error(),
			})
			answer = constant.GenerationFailureApology
		} else if answer = extractAnswer(full); answer == "" {
			s.chatLogger.Warn("ChatService", "Generation produced no answer text", map[string]interface{}{
				"chat_id": chatID,
			})
			answer = constant.GenerationFailureApology
		}
	}

	sessionHistory.Append(constant.ChatMessageRoleAssistant, answer)
	s.finalize(ctx, chatID, query, answer, rep, len(queries), false)

	return &dto.AskResponse{ChatID: chatID, Answer: answer}, nil
}

// AskStream runs the pipeline while feeding status transitions and gated
// answer tokens into the relay. It never returns an error; every failure
// mode ends with apology text and a clean End so the consumer loop can
// finish. Call it on its own goroutine, the relay consumer runs elsewhere.
func (s *chatService) AskStream(ctx context.Context, chatID string, query string, relay *stream.Relay) {
	defer relay.End()

	relay.EmitStatus(stream.StatusThinking)

	sessionHistory := s.memoryRepo.GetOrCreate(chatID)
	priorTurns := sessionHistory.Turns()
	sessionHistory.Append(constant.ChatMessageRoleUser, query)

	relay.EmitStatus(stream.StatusSearching)

	queries, rep := s.retrieve(ctx, query, priorTurns)

	var answer string
	if rep.NotFound() {
		answer = constant.NotFoundAnswer
		relay.Push(answer)
	} else {
		messages := prompt.AnswerMessages(history.Window(priorTurns, history.DefaultWindowPairs), rep, query)
		full, err := s.llmProvider.ChatStream(ctx, messages, relay.Observe,
			llm.WithStop("\nObservation:", "Observation:"),
		)
		answer = extractAnswer(full)
		if err != nil || answer == "" {
			if err != nil {
				s.chatLogger.Error("ChatService", "Streamed generation failed", map[string]interface{}{
					"chat_id": chatID,
					"error":   err.Error(),
				})
			} else {
				s.chatLogger.Warn("ChatService", "Generation produced no answer text", map[string]interface{}{
					"chat_id": chatID,
				})
			}
			answer = constant.GenerationFailureApology
			relay.Push(answer)
		}
	}

	sessionHistory.Append(constant.ChatMessageRoleAssistant, answer)
	s.finalize(ctx, chatID, query, answer, rep, len(queries), true)
}

// finalize persists the exchange asynchronously and fans out completion
// notifications. Every leg is best-effort: the answer has already been
// delivered, so downstream failures only get logged.
func (s *chatService) finalize(ctx context.Context, chatID, query, answer string, rep report.Report, subQueries int, streamed bool) {
	sources, err := json.Marshal(rep.Results)
	if err != nil {
		s.logger.Warn("ChatService", "Failed to marshal sources", map[string]interface{}{
			"chat_id": chatID,
			"error":   err.Error(),
		})
		sources = nil
	}

	if err := s.publisher.PublishExchange(ctx, dto.ChatExchangeMessage{
		ChatID:  chatID,
		Query:   query,
		Answer:  answer,
		Sources: sources,
	}); err != nil {
		s.logger.Error("ChatService", "Failed to publish exchange for persistence", map[string]interface{}{
			"chat_id": chatID,
			"error":   err.Error(),
		})
	}

	if s.natsPublisher != nil {
		event := events.AnswerCompletedEvent{
			ChatID:      chatID,
			Query:       query,
			AnswerChars: len(answer),
			SubQueries:  subQueries,
			Streamed:    streamed,
			OccurredAt:  time.Now(),
		}
		if err := s.natsPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("ChatService", "Failed to publish answer event", map[string]interface{}{
				"chat_id": chatID,
				"error":   err.Error(),
			})
		}
	}
}

func (s *chatService) History(ctx context.Context, chatID string) ([]dto.ChatHistoryMessage, error) {
	sessionID, err := uuid.Parse(chatID)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}

	messages, err := s.messageRepo.FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Ascending: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	result := make([]dto.ChatHistoryMessage, len(messages))
	for i, msg := range messages {
		result[i] = dto.ChatHistoryMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			Sources:   msg.Sources,
			CreatedAt: msg.CreatedAt,
		}
	}
	return result, nil
}

// ensureSession resolves an existing chat id or creates a fresh session for
// an empty one.
func (s *chatService) ensureSession(ctx context.Context, chatID string) (string, error) {
	if chatID == "" {
		return s.NewChat(ctx)
	}

	sessionID, err := uuid.Parse(chatID)
	if err != nil {
		return "", fmt.Errorf("invalid chat id: %w", err)
	}

	session, err := s.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return "", fmt.Errorf("failed to look up chat session: %w", err)
	}
	if session == nil {
		return "", fmt.Errorf("chat session %s not found", chatID)
	}
	return chatID, nil
}

// extractAnswer returns the text after the answer marker, or empty when the
// model never produced the marker.
func extractAnswer(full string) string {
	idx := strings.Index(full, constant.AnswerMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(full[idx+len(constant.AnswerMarker):])
}
