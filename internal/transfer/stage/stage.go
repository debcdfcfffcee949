// Package stage owns the workflow position vocabulary and the transition
// tables for property transfers. Legality of a stage jump is data, not
// scattered conditionals: the adjacency table below is the single source of
// truth and is exercised directly by tests.
package stage

// Stage is a named position in the transfer workflow.
type Stage string

const (
	Initiated            Stage = "initiated"
	AgreementSigned      Stage = "agreement_signed"
	StampDutyPaid        Stage = "stamp_duty_paid"
	DocumentsSubmitted   Stage = "documents_submitted"
	DocumentsVerified    Stage = "documents_verified"
	SurveyorVerification Stage = "surveyor_verification"
	SubRegistrarReview   Stage = "sub_registrar_review"
	RegistrationComplete Stage = "registration_complete"
	MutationInitiated    Stage = "mutation_initiated"
	FieldVerification    Stage = "field_verification"
	TehsildarApproval    Stage = "tehsildar_approval"
	MutationCompleted    Stage = "mutation_completed"
	TransferComplete     Stage = "transfer_complete"
)

// successors is the forward adjacency table. It is a DAG rather than a strict
// chain: jurisdiction rules let documents_verified skip the surveyor visit,
// and mutation_initiated skip the field visit. Terminal exits (rejected,
// cancelled) are a separate category and never appear here.
var successors = map[Stage][]Stage{
	Initiated:            {AgreementSigned},
	AgreementSigned:      {StampDutyPaid},
	StampDutyPaid:        {DocumentsSubmitted},
	DocumentsSubmitted:   {DocumentsVerified},
	DocumentsVerified:    {SurveyorVerification, SubRegistrarReview},
	SurveyorVerification: {SubRegistrarReview},
	SubRegistrarReview:   {RegistrationComplete},
	RegistrationComplete: {MutationInitiated},
	MutationInitiated:    {FieldVerification, TehsildarApproval},
	FieldVerification:    {TehsildarApproval},
	TehsildarApproval:    {MutationCompleted},
	MutationCompleted:    {TransferComplete},
	TransferComplete:     nil,
}

// Valid reports whether s names a known stage.
func Valid(s Stage) bool {
	_, ok := successors[s]
	return ok
}

// Successors returns the declared legal successors of s.
func Successors(s Stage) []Stage {
	return successors[s]
}

// CanFollow reports whether target is a declared successor of current.
func CanFollow(current, target Stage) bool {
	for _, next := range successors[current] {
		if next == target {
			return true
		}
	}
	return false
}

// Parse validates a raw stage string.
func Parse(raw string) (Stage, bool) {
	s := Stage(raw)
	return s, Valid(s)
}
