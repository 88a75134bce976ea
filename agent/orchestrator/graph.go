package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	statex "github.com/ymerta/agentic-assistant-local/agent/state"
)

// turnState threads one turn through the pipeline. Planner failures are
// captured rather than aborting the graph: a failed plan still gets an
// answer, a persisted turn, and a complete envelope.
type turnState struct {
	ConversationID string
	Fresh          bool
	Input          string
	Now            time.Time

	History    []contractx.Turn
	Decision   contractx.Decision
	PlannerErr error
	Result     *contractx.ToolResult
	Answer     string
	Warning    string
}

func (o *Orchestrator) compileTurnGraph(ctx context.Context) (compose.Runnable[*turnState, *turnState], error) {
	graph := compose.NewGraph[*turnState, *turnState]()

	nodes := []struct {
		name string
		fn   func(ctx context.Context, st *turnState) (*turnState, error)
	}{
		{"load_history", o.loadHistory},
		{"plan_turn", o.planTurn},
		{"dispatch_tool", o.dispatchTool},
		{"compose_answer", o.composeAnswer},
		{"persist_turn", o.persistTurn},
	}

	prev := compose.START
	for _, n := range nodes {
		if err := graph.AddLambdaNode(n.name, compose.InvokableLambda(n.fn)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
		if err := graph.AddEdge(prev, n.name); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", prev, n.name, err)
		}
		prev = n.name
	}
	if err := graph.AddEdge(prev, compose.END); err != nil {
		return nil, fmt.Errorf("add edge %s->end: %w", prev, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, st *turnState) (*turnState, error) {
	if st.Fresh {
		return st, nil
	}
	turns, err := o.store.LoadTurns(ctx, st.ConversationID)
	if err != nil {
		// History is context, not a hard dependency. The turn proceeds
		// memoryless.
		log.Warn().Err(err).Str("conversation_id", st.ConversationID).Msg("loading history failed")
		st.Warning = "prior conversation history could not be loaded for this turn"
		return st, nil
	}
	st.History = turns
	return st, nil
}

func (o *Orchestrator) planTurn(ctx context.Context, st *turnState) (*turnState, error) {
	decision, err := o.planner.Decide(ctx, contractx.PlannerRequest{
		Input:   st.Input,
		History: st.History,
		Now:     st.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", st.ConversationID).Msg("planning failed")
		st.PlannerErr = err
		return st, nil
	}
	st.Decision = decision
	return st, nil
}

func (o *Orchestrator) dispatchTool(ctx context.Context, st *turnState) (*turnState, error) {
	if st.PlannerErr != nil || st.Decision.ToolCall == nil {
		return st, nil
	}
	result := o.dispatcher.Execute(ctx, *st.Decision.ToolCall)
	st.Result = &result
	return st, nil
}

func (o *Orchestrator) composeAnswer(ctx context.Context, st *turnState) (*turnState, error) {
	if st.PlannerErr != nil {
		st.Answer = o.composer.ComposeError(st.PlannerErr)
		return st, nil
	}
	answer, err := o.composer.Compose(ctx, st.Input, st.Decision, st.Result)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", st.ConversationID).Msg("composing answer failed")
		answer = "Something went wrong while preparing my reply. Please try again."
	}
	st.Answer = answer
	return st, nil
}

func (o *Orchestrator) persistTurn(ctx context.Context, st *turnState) (*turnState, error) {
	if st.Fresh {
		now := o.now()
		conv := &statex.Conversation{
			ID:        st.ConversationID,
			Title:     statex.TitleFor(st.Input),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := o.store.CreateConversation(ctx, conv); err != nil {
			log.Error().Err(err).Str("conversation_id", st.ConversationID).Msg("creating conversation failed")
			st.Warning = "this turn could not be saved; history will not reflect it"
			return st, nil
		}
	}

	turn := &contractx.Turn{
		ID:             o.newID(),
		ConversationID: st.ConversationID,
		Input:          st.Input,
		ToolCall:       st.Decision.ToolCall,
		ToolResult:     st.Result,
		FinalAnswer:    st.Answer,
		CreatedAt:      o.now(),
	}
	if err := o.store.AppendTurn(ctx, turn); err != nil {
		log.Error().Err(err).Str("conversation_id", st.ConversationID).Msg("appending turn failed")
		st.Warning = "this turn could not be saved; history will not reflect it"
	}
	return st, nil
}
