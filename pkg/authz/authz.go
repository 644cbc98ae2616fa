package authz

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleArtisan Role = "artisan"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleArtisan, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller handed in by the upstream auth
// layer. Every service operation takes it as an explicit parameter; nothing
// reads the current user from ambient state.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Objects and actions known to the policy set.
const (
	ObjectModeration = "moderation"
	ObjectOrder      = "order"
	ObjectDonation   = "donation"
	ObjectContent    = "content"

	ActionList         = "list"
	ActionTransition   = "transition"
	ActionPlace        = "place"
	ActionUpdateStatus = "update_status"
	ActionRecord       = "record"
	ActionCreate       = "create"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var policies = [][]string{
	{string(RoleAdmin), ObjectModeration, ActionList},
	{string(RoleAdmin), ObjectModeration, ActionTransition},

	{string(RoleBuyer), ObjectOrder, ActionPlace},
	{string(RoleAdmin), ObjectOrder, ActionPlace},
	{string(RoleBuyer), ObjectOrder, ActionUpdateStatus},
	{string(RoleAdmin), ObjectOrder, ActionUpdateStatus},

	{string(RoleBuyer), ObjectDonation, ActionRecord},
	{string(RoleArtisan), ObjectDonation, ActionRecord},
	{string(RoleAdmin), ObjectDonation, ActionRecord},

	{string(RoleArtisan), ObjectContent, ActionCreate},
	{string(RoleAdmin), ObjectContent, ActionCreate},
}

var Module = fx.Module("authz",
	fx.Provide(NewEnforcer),
)

// Enforcer answers "may role R perform action A on object O". Ownership
// checks (own order, own product) stay in the services next to the rows.
type Enforcer struct {
	e *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies(policies); err != nil {
		return nil, err
	}

	return &Enforcer{e: e}, nil
}

func (e *Enforcer) Can(p Principal, object, action string) bool {
	ok, err := e.e.Enforce(string(p.Role), object, action)
	if err != nil {
		zap.L().Error("authz enforce failed", zap.Error(err), zap.String("object", object), zap.String("action", action))
		return false
	}
	return ok
}
