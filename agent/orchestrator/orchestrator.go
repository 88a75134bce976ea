// Package orchestrator runs one conversational turn end to end: history
// load, planning, tool dispatch, reply composition, and persistence. Turns
// within a conversation are strictly serialized; turns across conversations
// run concurrently.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	"github.com/ymerta/agentic-assistant-local/agent/dispatch"
	statex "github.com/ymerta/agentic-assistant-local/agent/state"
)

type Orchestrator struct {
	store      statex.Store
	planner    contractx.Planner
	dispatcher *dispatch.Dispatcher
	composer   contractx.Composer

	runner compose.Runnable[*turnState, *turnState]
	locks  *conversationLocks

	now   func() time.Time
	newID func() string
}

func New(store statex.Store, planner contractx.Planner, dispatcher *dispatch.Dispatcher, composer contractx.Composer) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	if planner == nil {
		return nil, errors.New("orchestrator: planner is required")
	}
	if dispatcher == nil {
		return nil, errors.New("orchestrator: dispatcher is required")
	}
	if composer == nil {
		return nil, errors.New("orchestrator: composer is required")
	}

	o := &Orchestrator{
		store:      store,
		planner:    planner,
		dispatcher: dispatcher,
		composer:   composer,
		locks:      newConversationLocks(),
		now:        time.Now,
		newID:      uuid.NewString,
	}

	runner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.runner = runner
	return o, nil
}

// Plan handles one turn. A blank conversation id mints a new conversation;
// an unknown id does the same rather than failing, so stale clients recover
// by getting a fresh thread.
func (o *Orchestrator) Plan(ctx context.Context, conversationID, input string) (contractx.PlanEnvelope, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return contractx.PlanEnvelope{}, contractx.ErrEmptyInput
	}

	id, fresh, warning := o.resolveConversation(ctx, conversationID)

	unlock := o.locks.acquire(id)
	defer unlock()

	st, err := o.runner.Invoke(ctx, &turnState{
		ConversationID: id,
		Fresh:          fresh,
		Input:          input,
		Now:            o.now(),
		Warning:        warning,
	})
	if err != nil {
		return contractx.PlanEnvelope{}, fmt.Errorf("run turn: %w", err)
	}

	return buildEnvelope(st), nil
}

// resolveConversation decides which thread the turn belongs to. Only a
// confirmed miss mints a fresh id; a store outage keeps the caller's id so a
// transient failure never forks their thread.
func (o *Orchestrator) resolveConversation(ctx context.Context, id string) (resolved string, fresh bool, warning string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return o.newID(), true, ""
	}

	_, err := o.store.GetConversation(ctx, id)
	switch {
	case err == nil:
		return id, false, ""
	case errors.Is(err, statex.ErrConversationNotFound):
		return o.newID(), true, ""
	default:
		log.Warn().Err(err).Str("conversation_id", id).Msg("conversation lookup failed")
		return id, false, "conversation state is temporarily unavailable; this turn may not be saved"
	}
}

func buildEnvelope(st *turnState) contractx.PlanEnvelope {
	env := contractx.PlanEnvelope{
		ConversationID: st.ConversationID,
		PlanText:       st.Decision.Raw,
		ToolCall:       st.Decision.ToolCall,
		FinalAnswer:    st.Answer,
		Warning:        st.Warning,
	}
	if st.Result != nil {
		if st.Result.Failed() {
			env.ToolOutput = map[string]any{
				"error": st.Result.Message,
				"kind":  string(st.Result.Kind),
			}
		} else {
			env.ToolOutput = st.Result.Payload
		}
	}
	return env
}
