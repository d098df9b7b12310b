package graphplan

import (
	"encoding/json"
	"fmt"
)

// DefaultStepOutput is the output placeholder written on every step. Steps do
// not chain yet; the placeholder reserves the slot.
const DefaultStepOutput = "$result"

// Plan is the ordered list of intent+value bindings produced by the planner
// and consumed by the runner.
type Plan struct {
	Steps []Step `json:"plan"`
}

// Step binds one intent to one extracted value.
type Step struct {
	Step        int    `json:"step"`
	IntentID    string `json:"intent_id"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Output      string `json:"output"`
}

// ParsePlan decodes a plan document. A document without a "plan" key decodes
// but fails Validate.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan

	err := json.Unmarshal(data, &p)
	if err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	return &p, nil
}

// Validate reports ErrInvalidPlan when the plan has no steps.
func (p *Plan) Validate() error {
	if p == nil || len(p.Steps) == 0 {
		return NewError("plan.Validate", ErrInvalidPlan, "invalid plan: no steps", nil)
	}

	return nil
}
