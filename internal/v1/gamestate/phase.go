package gamestate

// Phase is the discrete stage within a player's turn (§3, §4.3).
type Phase string

const (
	PhaseUntapStartStep Phase = "UntapStartStep"
	PhaseLootStep        Phase = "LootStep"
	PhaseActionStep       Phase = "ActionStep"
	PhaseEndStep          Phase = "EndStep"
	PhaseTurnEnd          Phase = "TurnEnd"
)

// nextPhase maps each phase to its successor, per the §4.3 table:
// UntapStartStep → LootStep → ActionStep → EndStep → TurnEnd → UntapStartStep.
var nextPhase = map[Phase]Phase{
	PhaseUntapStartStep: PhaseLootStep,
	PhaseLootStep:        PhaseActionStep,
	PhaseActionStep:      PhaseEndStep,
	PhaseEndStep:         PhaseTurnEnd,
	PhaseTurnEnd:         PhaseUntapStartStep,
}

// NextPhase returns the successor of p in the fixed phase cycle.
func (p Phase) NextPhase() Phase {
	return nextPhase[p]
}
