package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{RoleAdmin, ObjectPriceTier, ActionPriceTierReplace, true},
		{RoleAdmin, ObjectPoints, ActionPointsAdjust, true},
		{"ADMIN", ObjectRanking, ActionRankingRecompute, true},
		{RoleSupport, ObjectPoints, ActionPointsAdjust, true},
		{RoleSupport, ObjectOrder, ActionOrderCancelAny, true},
		{RoleSupport, ObjectPriceTier, ActionPriceTierReplace, false},
		{RoleSupport, ObjectPoints, ActionPointsExpire, false},
		{RoleUser, ObjectOrder, ActionOrderCancelAny, false},
		{"", ObjectOrder, ActionOrderViewAny, false},
		{RoleAdmin, ObjectOrder, ActionPointsAdjust, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.action, func(t *testing.T) {
			if got := a.Allowed(tt.role, tt.object, tt.action); got != tt.want {
				t.Fatalf("Allowed(%q, %q, %q)=%v want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
	require.ErrorIs(t, a.Authorize(RoleUser, ObjectPoints, ActionPointsExpire), ErrForbidden)
}
