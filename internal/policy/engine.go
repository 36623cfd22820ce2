// Package policy evaluates chat ownership rules with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Actions checked against the ownership policy.
const (
	ActionDeleteChat = "delete_chat"
	ActionCastVote   = "cast_vote"
	ActionReadVotes  = "read_votes"
	ActionListEvents = "list_events"
)

// Input is the document the policy is evaluated against.
type Input struct {
	Action     string
	UserID     string
	OwnerID    string
	Visibility string
}

// Decision is the policy outcome.
type Decision struct {
	Allow  bool
	Reason string
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.decision"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks whether the input's user may perform the action.
// Anything other than an explicit allow is a deny.
func (e *Engine) Evaluate(ctx context.Context, in Input) (Decision, error) {
	input := map[string]interface{}{
		"action":     in.Action,
		"user_id":    in.UserID,
		"owner_id":   in.OwnerID,
		"visibility": in.Visibility,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Allow: false, Reason: "no_decision"}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{Allow: false, Reason: "unexpected return type"}, nil
	}
	allow, _ := obj["allow"].(bool)
	reason, _ := obj["reason"].(string)
	return Decision{Allow: allow, Reason: reason}, nil
}

// DefaultPolicy allows the chat owner every action and lets any signed-in
// user read votes.
const DefaultPolicy = `
package chat_policy

default decision := {"allow": false, "reason": "not_owner"}

decision := {"allow": true, "reason": allow_reason} if allow_reason

allow_reason := "owner" if {
	input.user_id != ""
	input.user_id == input.owner_id
} else := "authenticated" if {
	input.action == "read_votes"
	input.user_id != ""
}
`
