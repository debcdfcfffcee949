package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanFollow(t *testing.T) {
	tests := []struct {
		name    string
		current Stage
		target  Stage
		want    bool
	}{
		{"initiated to agreement", Initiated, AgreementSigned, true},
		{"agreement to stamp duty", AgreementSigned, StampDutyPaid, true},
		{"documents verified to surveyor", DocumentsVerified, SurveyorVerification, true},
		{"documents verified may skip surveyor", DocumentsVerified, SubRegistrarReview, true},
		{"mutation initiated may skip field visit", MutationInitiated, TehsildarApproval, true},
		{"no skipping from initiated", Initiated, StampDutyPaid, false},
		{"no going backwards", SubRegistrarReview, DocumentsVerified, false},
		{"terminal exit is not a forward edge", DocumentsVerified, "cancelled", false},
		{"transfer complete has no successors", TransferComplete, Initiated, false},
		{"unknown current stage", Stage("bogus"), AgreementSigned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanFollow(tt.current, tt.target))
		})
	}
}

func TestAdjacencyIsAcyclic(t *testing.T) {
	// Walk forward from every stage; a cycle would revisit a stage on the
	// current path.
	var visit func(s Stage, path map[Stage]bool) bool
	visit = func(s Stage, path map[Stage]bool) bool {
		if path[s] {
			return false
		}
		path[s] = true
		defer delete(path, s)
		for _, next := range Successors(s) {
			if !visit(next, path) {
				return false
			}
		}
		return true
	}
	for s := range successors {
		assert.True(t, visit(s, map[Stage]bool{}), "cycle reachable from %s", s)
	}
}

func TestRoleBindings(t *testing.T) {
	t.Run("approval labels map to roles", func(t *testing.T) {
		role, ok := RoleForApproval(SurveyorApproved)
		assert.True(t, ok)
		assert.Equal(t, RoleSurveyor, role)

		role, ok = RoleForApproval(SubRegistrarApproved)
		assert.True(t, ok)
		assert.Equal(t, RoleSubRegistrar, role)

		_, ok = RoleForApproval(ApprovalStage("notary_approved"))
		assert.False(t, ok)
	})

	t.Run("gating roles cover exactly two stages", func(t *testing.T) {
		role, ok := GatingRole(RegistrationComplete)
		assert.True(t, ok)
		assert.Equal(t, RoleSubRegistrar, role)

		role, ok = GatingRole(MutationCompleted)
		assert.True(t, ok)
		assert.Equal(t, RoleTehsildar, role)

		_, ok = GatingRole(AgreementSigned)
		assert.False(t, ok)
	})

	t.Run("pending queues and gating share one table", func(t *testing.T) {
		for _, role := range RequiredRoles() {
			reviews, ok := ReviewStage(role)
			assert.True(t, ok)
			assert.True(t, Valid(reviews), "review stage for %s must be a workflow stage", role)
		}
	})

	t.Run("parse role", func(t *testing.T) {
		role, ok := ParseRole("tehsildar")
		assert.True(t, ok)
		assert.Equal(t, RoleTehsildar, role)

		_, ok = ParseRole("clerk")
		assert.False(t, ok)
	})
}
