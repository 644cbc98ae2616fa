package moderation

import (
	"context"

	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EntityAccess is implemented once per moderated content kind. It is the
// only seam the gate needs: the gate never touches the content tables
// directly.
type EntityAccess interface {
	Kind() Kind
	// ListByStatus returns rows in the given moderation status oldest-first
	// with the creator's display name joined in.
	ListByStatus(ctx context.Context, status Status, page pagination.Pagination) ([]*ReviewItem, error)
	// SetStatus writes the moderation state of one row. It reports false
	// when the id does not resolve to this kind.
	SetStatus(ctx context.Context, id string, status Status, reason string) (bool, error)
}

// Gate applies the three-state moderation workflow uniformly across
// products, campaigns and stories.
type Gate struct {
	enforcer     *authz.Enforcer
	access       map[Kind]EntityAccess
	revertOnEdit bool
}

type GateParams struct {
	fx.In

	Config   *config.Config
	Enforcer *authz.Enforcer
	Access   []EntityAccess `group:"moderation.access"`
}

func NewGate(p GateParams) *Gate {
	access := make(map[Kind]EntityAccess, len(p.Access))
	for _, a := range p.Access {
		access[a.Kind()] = a
	}
	return &Gate{
		enforcer:     p.Enforcer,
		access:       access,
		revertOnEdit: p.Config.Moderation.RevertOnEdit,
	}
}

// InitialStatus is the single seam every content-creation path calls:
// administrator-authored content goes live immediately, everything else
// waits for review.
func (g *Gate) InitialStatus(p authz.Principal) Status {
	if p.IsAdmin() {
		return StatusApproved
	}
	return StatusPending
}

// OnContentEdited applies the revert-on-edit policy to the state of a row
// whose creator just edited it.
func (g *Gate) OnContentEdited(st State) State {
	if !g.revertOnEdit || st.Status != StatusApproved {
		return st
	}
	return State{Status: StatusPending}
}

// ListForReview returns the review queue for one content kind. The queue
// defaults to pending rows; re-review passes approved or rejected instead.
func (g *Gate) ListForReview(ctx context.Context, p authz.Principal, kind Kind, status Status, page pagination.Pagination) ([]*ReviewItem, error) {
	if !g.enforcer.Can(p, authz.ObjectModeration, authz.ActionList) {
		return nil, errutil.Forbidden("administrator role required", nil)
	}

	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, errutil.ValidationFailed("unknown moderation status", nil)
	}

	access, ok := g.access[kind]
	if !ok {
		return nil, errutil.NotFound("unknown content kind", nil)
	}

	items, err := access.ListByStatus(ctx, status, page)
	if err != nil {
		zap.L().Error("failed to list content for review", zap.Error(err), zap.String("kind", string(kind)), zap.String("status", string(status)))
		return nil, err
	}

	return items, nil
}

// Approve sets a row approved and clears any rejection reason. Approving an
// already-approved row is a no-op success.
func (g *Gate) Approve(ctx context.Context, p authz.Principal, kind Kind, id string) error {
	return g.transition(ctx, p, kind, id, StatusApproved, "")
}

// Reject sets a row rejected with an optional free-text reason. Idempotent
// like Approve.
func (g *Gate) Reject(ctx context.Context, p authz.Principal, kind Kind, id, reason string) error {
	return g.transition(ctx, p, kind, id, StatusRejected, reason)
}

func (g *Gate) transition(ctx context.Context, p authz.Principal, kind Kind, id string, status Status, reason string) error {
	if !g.enforcer.Can(p, authz.ObjectModeration, authz.ActionTransition) {
		return errutil.Forbidden("administrator role required", nil)
	}

	access, ok := g.access[kind]
	if !ok {
		return errutil.NotFound("unknown content kind", nil)
	}

	found, err := access.SetStatus(ctx, id, status, reason)
	if err != nil {
		zap.L().Error("failed to transition moderation state",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.String("status", string(status)),
		)
		return err
	}
	if !found {
		return errutil.NotFound("content not found", nil)
	}

	return nil
}
