package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	statex "github.com/ymerta/agentic-assistant-local/agent/state"
	"github.com/ymerta/agentic-assistant-local/pkg/googleapi"
)

// ConversationIDHeader carries the conversation id both ways: clients send
// it to continue a thread, the server echoes the effective id back.
const ConversationIDHeader = "X-Conversation-Id"

// Orchestrator is the slice of the turn engine the HTTP layer needs.
type Orchestrator interface {
	Plan(ctx context.Context, conversationID, input string) (contractx.PlanEnvelope, error)
}

type Handlers struct {
	Orchestrator Orchestrator
	Store        statex.Store

	// Chat serves the graph-free /chat_once endpoint; nil disables it.
	Chat      *openaisdk.Client
	ChatModel string

	// Google drives the OAuth endpoints; nil disables them.
	Google *googleapi.Authenticator

	Version string
}

type planRequest struct {
	UserInput string `json:"user_input"`
}

func (h *Handlers) plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body must be JSON with a user_input field")
		return
	}

	conversationID := r.Header.Get(ConversationIDHeader)

	env, err := h.Orchestrator.Plan(r.Context(), conversationID, req.UserInput)
	if err != nil {
		if errors.Is(err, contractx.ErrEmptyInput) {
			respondError(w, http.StatusBadRequest, "user_input must not be empty")
			return
		}
		log.Error().Err(err).Msg("plan request failed")
		respondError(w, http.StatusInternalServerError, "planning failed")
		return
	}

	w.Header().Set(ConversationIDHeader, env.ConversationID)
	respondJSON(w, http.StatusOK, env)
}

func (h *Handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.Store.ListConversations(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("listing conversations failed")
		respondError(w, http.StatusInternalServerError, "listing conversations failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *Handlers) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := h.Store.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, statex.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		log.Error().Err(err).Str("conversation_id", id).Msg("loading conversation failed")
		respondError(w, http.StatusInternalServerError, "loading conversation failed")
		return
	}

	turns, err := h.Store.LoadTurns(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", id).Msg("loading turns failed")
		respondError(w, http.StatusInternalServerError, "loading conversation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"turns":        turns,
	})
}

func (h *Handlers) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteConversation(r.Context(), id); err != nil {
		if errors.Is(err, statex.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		log.Error().Err(err).Str("conversation_id", id).Msg("deleting conversation failed")
		respondError(w, http.StatusInternalServerError, "deleting conversation failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

type chatOnceRequest struct {
	Text string `json:"text"`
}

// chatOnce is a stateless single-shot completion that bypasses planning,
// tools, and persistence. Useful for smoke-testing the model wiring.
func (h *Handlers) chatOnce(w http.ResponseWriter, r *http.Request) {
	if h.Chat == nil {
		respondError(w, http.StatusServiceUnavailable, "chat model is not configured")
		return
	}

	var req chatOnceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "request body must be JSON with a non-empty text field")
		return
	}

	resp, err := h.Chat.Chat.Completions.New(r.Context(), openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(h.ChatModel),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage("You are a concise, helpful assistant."),
			openaisdk.UserMessage(req.Text),
		},
		Temperature: openaisdk.Float(0.3),
		MaxTokens:   openaisdk.Int(400),
	})
	if err != nil {
		log.Error().Err(err).Msg("chat_once completion failed")
		respondError(w, http.StatusBadGateway, "chat model request failed")
		return
	}
	if len(resp.Choices) == 0 {
		respondError(w, http.StatusBadGateway, "chat model returned no choices")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": resp.Choices[0].Message.Content})
}

func (h *Handlers) googleAuthStart(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		respondError(w, http.StatusServiceUnavailable, "google integration is not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"auth_url": h.Google.AuthURL(uuid.NewString()),
	})
}

func (h *Handlers) googleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		respondError(w, http.StatusServiceUnavailable, "google integration is not configured")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing code query parameter")
		return
	}
	if err := h.Google.Exchange(r.Context(), code); err != nil {
		log.Error().Err(err).Msg("google token exchange failed")
		respondError(w, http.StatusBadGateway, "token exchange failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "authorized"})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "agentic-assistant-local",
		"version": h.Version,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encoding response failed")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
