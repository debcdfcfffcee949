package stage

// Role is an official role gating part of the workflow.
type Role string

const (
	RoleSurveyor     Role = "surveyor"
	RoleSubRegistrar Role = "sub_registrar"
	RoleTehsildar    Role = "tehsildar"
)

// ApprovalStage labels an approval entry. These are sign-off names, not
// workflow positions; non-mapped values are recorded as evidence but never
// affect gating.
type ApprovalStage string

const (
	SurveyorApproved     ApprovalStage = "surveyor_approved"
	SubRegistrarApproved ApprovalStage = "sub_registrar_approved"
	TehsildarApproved    ApprovalStage = "tehsildar_approved"
)

// roleBinding ties one role to the review stage it works, the approval label
// it signs with, and the stage its sign-off unlocks. One table serves both
// approval gating and pending-approval queries so the two can never diverge.
type roleBinding struct {
	role     Role
	reviews  Stage
	signsAs  ApprovalStage
	unlocks  Stage
	required bool
}

var roleBindings = []roleBinding{
	{role: RoleSurveyor, reviews: SurveyorVerification, signsAs: SurveyorApproved, required: true},
	{role: RoleSubRegistrar, reviews: SubRegistrarReview, signsAs: SubRegistrarApproved, unlocks: RegistrationComplete, required: true},
	{role: RoleTehsildar, reviews: TehsildarApproval, signsAs: TehsildarApproved, unlocks: MutationCompleted, required: true},
}

// RequiredRoles returns the roles every transfer must collect sign-offs from,
// in binding order.
func RequiredRoles() []Role {
	roles := make([]Role, 0, len(roleBindings))
	for _, b := range roleBindings {
		if b.required {
			roles = append(roles, b.role)
		}
	}
	return roles
}

// RoleForApproval maps an approval label to the role it satisfies. The second
// return is false for labels outside the gating table.
func RoleForApproval(s ApprovalStage) (Role, bool) {
	for _, b := range roleBindings {
		if b.signsAs == s {
			return b.role, true
		}
	}
	return "", false
}

// GatingRole returns the role whose completed sign-off target requires, if
// any.
func GatingRole(target Stage) (Role, bool) {
	for _, b := range roleBindings {
		if b.unlocks == target {
			return b.role, true
		}
	}
	return "", false
}

// ReviewStage returns the single stage a role's pending queue covers.
func ReviewStage(role Role) (Stage, bool) {
	for _, b := range roleBindings {
		if b.role == role {
			return b.reviews, true
		}
	}
	return "", false
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	r := Role(raw)
	for _, b := range roleBindings {
		if b.role == r {
			return r, true
		}
	}
	return "", false
}
