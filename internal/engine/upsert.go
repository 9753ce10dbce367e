package engine

import (
	"context"
	"strings"

	"github.com/boxhaul-io/boxhaul/internal/logging"
	"github.com/boxhaul-io/boxhaul/internal/netbox"
)

// DuplicatePolicy decides whether a creation error indicates that an
// equivalent object already exists. It is a replaceable policy because it
// depends on the wording of the target system's error responses.
type DuplicatePolicy func(error) bool

// duplicateIndicators are the substrings the default policy recognizes in
// uniqueness-violation responses.
var duplicateIndicators = []string{
	"already exists",
	"duplicate",
	"must be unique",
	"is violated",
	"constraint",
}

// DefaultDuplicatePolicy matches the known uniqueness-violation phrasings
// case-insensitively.
func DefaultDuplicatePolicy() DuplicatePolicy {
	return func(err error) bool {
		if err == nil {
			return false
		}
		msg := strings.ToLower(err.Error())
		for _, indicator := range duplicateIndicators {
			if strings.Contains(msg, indicator) {
				return true
			}
		}
		return false
	}
}

// Executor performs the existence-probe-then-create side effect for one
// payload and classifies the result. Transport failures are never retried;
// one record fails and the run moves on.
type Executor struct {
	client      netbox.Client
	dryRun      bool
	isDuplicate DuplicatePolicy
}

// NewExecutor builds an executor over a target client. A nil policy gets
// the default duplicate classification.
func NewExecutor(client netbox.Client, dryRun bool, policy DuplicatePolicy) *Executor {
	if policy == nil {
		policy = DefaultDuplicatePolicy()
	}
	return &Executor{client: client, dryRun: dryRun, isDuplicate: policy}
}

// Apply creates the payload in the target. A non-nil probe query runs an
// existence check first; a hit short-circuits to OutcomeExists. The
// returned object is nil unless the target reported a handle, and the
// message is non-empty only for failures.
func (x *Executor) Apply(ctx context.Context, entity string, probe map[string]string, payload map[string]any) (Outcome, *netbox.Object, string) {
	if x.dryRun {
		return OutcomeCreated, nil, ""
	}

	if probe != nil {
		existing, err := x.client.Find(ctx, entity, probe)
		if err != nil {
			// A failed probe falls through to the creation attempt;
			// the uniqueness classification catches real duplicates.
			logging.Debug("existence probe failed", "entity", entity, "error", err)
		} else if existing != nil {
			return OutcomeExists, existing, ""
		}
	}

	obj, err := x.client.Create(ctx, entity, payload)
	if err != nil {
		if x.isDuplicate(err) {
			return OutcomeExists, nil, ""
		}
		return OutcomeFailed, nil, err.Error()
	}
	return OutcomeCreated, obj, ""
}
