package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"artisan-marketplace/pkg/authz"

	"github.com/bwmarrin/snowflake"
)

// StaticSequence replaces the redis-backed code generator in tests.
type StaticSequence struct {
	n atomic.Int64
}

func (s *StaticSequence) NextOrderCode(context.Context) (string, error) {
	return fmt.Sprintf("ORD-TEST-%04d", s.n.Add(1)), nil
}

func (s *StaticSequence) NextDonationCode(context.Context) (string, error) {
	return fmt.Sprintf("DON-TEST-%04d", s.n.Add(1)), nil
}

func NewSnowflakeNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return node
}

func NewEnforcer(t *testing.T) *authz.Enforcer {
	t.Helper()
	e, err := authz.NewEnforcer()
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	return e
}

func Buyer(id string) authz.Principal {
	return authz.Principal{ID: id, Role: authz.RoleBuyer}
}

func Artisan(id string) authz.Principal {
	return authz.Principal{ID: id, Role: authz.RoleArtisan}
}

func Admin(id string) authz.Principal {
	return authz.Principal{ID: id, Role: authz.RoleAdmin}
}
