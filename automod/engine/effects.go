package engine

// Enforcement action kinds, in increasing severity.
type ActionKind string

const (
	ActionDelete   ActionKind = "delete_content"
	ActionRestrict ActionKind = "restrict"
	ActionKick     ActionKind = "kick"
	ActionBan      ActionKind = "ban"
)

func severity(k ActionKind) int {
	switch k {
	case ActionDelete:
		return 1
	case ActionRestrict:
		return 2
	case ActionKick:
		return 3
	case ActionBan:
		return 4
	}
	return 0
}

// An enforcement decision produced by rule evaluation. Ephemeral: produced
// and consumed within one evaluation cycle, never persisted.
type Action struct {
	Kind       ActionKind
	ReasonCode string
	Evidence   map[string]any
}

// Mutable container for the side-effects of one evaluation cycle.
//
// At most one member-level action survives: EscalateMember keeps the highest
// severity decision seen, so a ban always wins over a kick for the same
// event.
type Effects struct {
	halted bool

	DeleteRequested bool
	DeleteReason    string
	DeleteEvidence  map[string]any

	MemberAction *Action

	JoinReasons []Action
}

// Halt stops further rule evaluation for this cycle. Effects already
// recorded are still applied.
func (e *Effects) Halt() {
	e.halted = true
}

func (e *Effects) Halted() bool {
	return e.halted
}

func (e *Effects) Delete(reasonCode string, evidence map[string]any) {
	if e.DeleteRequested {
		return
	}
	e.DeleteRequested = true
	e.DeleteReason = reasonCode
	e.DeleteEvidence = evidence
}

func (e *Effects) EscalateMember(kind ActionKind, reasonCode string, evidence map[string]any) {
	act := &Action{Kind: kind, ReasonCode: reasonCode, Evidence: evidence}
	if e.MemberAction == nil || severity(kind) > severity(e.MemberAction.Kind) {
		e.MemberAction = act
	}
}

func (e *Effects) AddJoinReason(reasonCode string, evidence map[string]any) {
	e.JoinReasons = append(e.JoinReasons, Action{ReasonCode: reasonCode, Evidence: evidence})
}

func (e *Effects) actionKind() string {
	if e.MemberAction == nil {
		return ""
	}
	return string(e.MemberAction.Kind)
}
