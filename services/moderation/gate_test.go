package moderation

import (
	"context"
	"errors"
	"testing"

	"artisan-marketplace/pkg/config"
	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeAccess struct {
	kind           Kind
	listFn         func(ctx context.Context, status Status, page pagination.Pagination) ([]*ReviewItem, error)
	setStatusFn    func(ctx context.Context, id string, status Status, reason string) (bool, error)
	lastStatus     Status
	lastReason     string
	lastTargetID   string
	lastListStatus Status
	setStatusHits  int
}

func (f *fakeAccess) Kind() Kind { return f.kind }

func (f *fakeAccess) ListByStatus(ctx context.Context, status Status, page pagination.Pagination) ([]*ReviewItem, error) {
	f.lastListStatus = status
	if f.listFn != nil {
		return f.listFn(ctx, status, page)
	}
	return nil, nil
}

func (f *fakeAccess) SetStatus(ctx context.Context, id string, status Status, reason string) (bool, error) {
	f.setStatusHits++
	f.lastTargetID = id
	f.lastStatus = status
	f.lastReason = reason
	if f.setStatusFn != nil {
		return f.setStatusFn(ctx, id, status, reason)
	}
	return true, nil
}

func newTestGate(t *testing.T, access ...EntityAccess) *Gate {
	t.Helper()
	return NewGate(GateParams{
		Config:   &config.Config{},
		Enforcer: testutil.NewEnforcer(t),
		Access:   access,
	})
}

func TestInitialStatus(t *testing.T) {
	g := newTestGate(t)

	require.Equal(t, StatusApproved, g.InitialStatus(testutil.Admin("a1")))
	require.Equal(t, StatusPending, g.InitialStatus(testutil.Artisan("u1")))
	require.Equal(t, StatusPending, g.InitialStatus(testutil.Buyer("b1")))
}

func TestOnContentEditedDefaultKeepsApproval(t *testing.T) {
	g := newTestGate(t)

	st := g.OnContentEdited(State{Status: StatusApproved})
	require.Equal(t, StatusApproved, st.Status)
}

func TestOnContentEditedRevertPolicy(t *testing.T) {
	cfg := &config.Config{}
	cfg.Moderation.RevertOnEdit = true
	g := NewGate(GateParams{Config: cfg, Enforcer: testutil.NewEnforcer(t)})

	st := g.OnContentEdited(State{Status: StatusApproved})
	require.Equal(t, StatusPending, st.Status)

	// rejected content never silently re-enters the queue
	st = g.OnContentEdited(State{Status: StatusRejected, RejectionReason: "spam"})
	require.Equal(t, StatusRejected, st.Status)
	require.Equal(t, "spam", st.RejectionReason)
}

func TestListForReviewRequiresAdmin(t *testing.T) {
	g := newTestGate(t, &fakeAccess{kind: KindProduct})

	_, err := g.ListForReview(context.Background(), testutil.Artisan("u1"), KindProduct, StatusPending, pagination.Pagination{})
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusForbidden, be.Code)
}

func TestListForReviewUnknownKind(t *testing.T) {
	g := newTestGate(t)

	_, err := g.ListForReview(context.Background(), testutil.Admin("a1"), Kind("video"), StatusPending, pagination.Pagination{})
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusNotFound, be.Code)
}

func TestListForReviewSuccess(t *testing.T) {
	access := &fakeAccess{
		kind: KindProduct,
		listFn: func(context.Context, Status, pagination.Pagination) ([]*ReviewItem, error) {
			return []*ReviewItem{{ID: "p1", Kind: KindProduct, Title: "Vase", Status: StatusPending}}, nil
		},
	}
	g := newTestGate(t, access)

	items, err := g.ListForReview(context.Background(), testutil.Admin("a1"), KindProduct, StatusPending, pagination.Pagination{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "p1", items[0].ID)
}

func TestListForReviewStatusFilter(t *testing.T) {
	access := &fakeAccess{kind: KindProduct}
	g := newTestGate(t, access)
	ctx := context.Background()
	admin := testutil.Admin("a1")

	// empty filter means the pending queue
	_, err := g.ListForReview(ctx, admin, KindProduct, "", pagination.Pagination{})
	require.NoError(t, err)
	require.Equal(t, StatusPending, access.lastListStatus)

	// rejected rows can be pulled back for re-review
	_, err = g.ListForReview(ctx, admin, KindProduct, StatusRejected, pagination.Pagination{})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, access.lastListStatus)

	_, err = g.ListForReview(ctx, admin, KindProduct, Status("archived"), pagination.Pagination{})
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusValidationFailed, be.Code)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	require.Equal(t, StatusPending, s)

	s, err = ParseStatus("rejected")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, s)

	_, err = ParseStatus("archived")
	require.Error(t, err)
}

func TestApproveRequiresAdmin(t *testing.T) {
	access := &fakeAccess{kind: KindProduct}
	g := newTestGate(t, access)

	err := g.Approve(context.Background(), testutil.Buyer("b1"), KindProduct, "p1")
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusForbidden, be.Code)
	require.Zero(t, access.setStatusHits)
}

func TestApproveClearsReason(t *testing.T) {
	access := &fakeAccess{kind: KindCampaign}
	g := newTestGate(t, access)

	require.NoError(t, g.Approve(context.Background(), testutil.Admin("a1"), KindCampaign, "c1"))
	require.Equal(t, "c1", access.lastTargetID)
	require.Equal(t, StatusApproved, access.lastStatus)
	require.Empty(t, access.lastReason)
}

func TestApproveMissingContent(t *testing.T) {
	access := &fakeAccess{
		kind: KindStory,
		setStatusFn: func(context.Context, string, Status, string) (bool, error) {
			return false, nil
		},
	}
	g := newTestGate(t, access)

	err := g.Approve(context.Background(), testutil.Admin("a1"), KindStory, "missing")
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusNotFound, be.Code)
}

func TestRejectStoresReason(t *testing.T) {
	access := &fakeAccess{kind: KindProduct}
	g := newTestGate(t, access)

	require.NoError(t, g.Reject(context.Background(), testutil.Admin("a1"), KindProduct, "p1", "counterfeit"))
	require.Equal(t, StatusRejected, access.lastStatus)
	require.Equal(t, "counterfeit", access.lastReason)
}

func TestTransitionPropagatesAccessError(t *testing.T) {
	boom := errors.New("db down")
	access := &fakeAccess{
		kind: KindProduct,
		setStatusFn: func(context.Context, string, Status, string) (bool, error) {
			return false, boom
		},
	}
	g := newTestGate(t, access)

	err := g.Approve(context.Background(), testutil.Admin("a1"), KindProduct, "p1")
	require.ErrorIs(t, err, boom)
}
