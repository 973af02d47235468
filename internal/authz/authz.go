// Package authz decides which roles may call the administrative operations.
package authz

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
	RoleUser    = "user"
)

const (
	ObjectPriceTier = "price_tier"
	ObjectOrder     = "order"
	ObjectPoints    = "points"
	ObjectRanking   = "ranking"
	ObjectUserData  = "user_data"
)

const (
	ActionPriceTierReplace = "price_tier.replace"
	ActionOrderCancelAny   = "order.cancel_any"
	ActionOrderViewAny     = "order.view_any"
	ActionPointsAdjust     = "points.adjust"
	ActionPointsExpire     = "points.expire"
	ActionRankingRecompute = "ranking.recompute"
	ActionUserDataViewAny  = "user_data.view_any"
)

var ErrForbidden = errors.New("forbidden")

// support handles customer issues; admin inherits everything support can do.
var policies = [][]string{
	{"role:" + RoleSupport, ObjectOrder, ActionOrderCancelAny},
	{"role:" + RoleSupport, ObjectOrder, ActionOrderViewAny},
	{"role:" + RoleSupport, ObjectPoints, ActionPointsAdjust},
	{"role:" + RoleSupport, ObjectUserData, ActionUserDataViewAny},
	{"role:" + RoleAdmin, ObjectPriceTier, ActionPriceTierReplace},
	{"role:" + RoleAdmin, ObjectPoints, ActionPointsExpire},
	{"role:" + RoleAdmin, ObjectRanking, ActionRankingRecompute},
}

var groupings = [][]string{
	{"role:" + RoleAdmin, "role:" + RoleSupport},
}

type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds an in-memory enforcer seeded with the built-in policies.
func New() (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, err
	}
	if _, err := enforcer.AddGroupingPolicies(groupings); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Authorize returns ErrForbidden unless role may perform action on object.
func (a *Authorizer) Authorize(role, object, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrForbidden
	}
	ok, err := a.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// Allowed is Authorize without the error detail.
func (a *Authorizer) Allowed(role, object, action string) bool {
	return a.Authorize(role, object, action) == nil
}
