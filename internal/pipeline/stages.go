package pipeline

// Stage is one of the fixed pipeline states an opportunity can be in.
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageQualified   Stage = "qualified"
	StageUnqualified Stage = "unqualified"
	StageNurture     Stage = "nurture"
	StageDead        Stage = "dead"

	StageDealQualified Stage = "deal_qualified"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageContract      Stage = "contract"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"

	StageAccountActive  Stage = "account_active"
	StageAccountAtRisk  Stage = "account_at_risk"
	StageAccountChurned Stage = "account_churned"
)

// Category groups stages into board views.
type Category string

const (
	CategoryOutreach Category = "outreach"
	CategoryLead     Category = "lead"
	CategoryDeal     Category = "deal"
	CategoryAccount  Category = "account"
)

// SourceColdOutreach marks records shown on the outreach board
// (a filtered view over lead "new", not a stage of its own).
const SourceColdOutreach = "cold_outreach"

// categoryStages is the single source of truth for stage membership and
// display order. Nothing else may hardcode a stage list.
var categoryStages = map[Category][]Stage{
	CategoryLead: {
		StageNew, StageContacted, StageQualified,
		StageUnqualified, StageNurture, StageDead,
	},
	CategoryDeal: {
		StageDealQualified, StageProposal, StageNegotiation,
		StageContract, StageClosedWon, StageClosedLost,
	},
	CategoryAccount: {
		StageAccountActive, StageAccountAtRisk, StageAccountChurned,
	},
}

// progression is the forward path per category. Stages absent here
// (unqualified, nurture, dead, closed_lost, the account health states)
// are off-path: Next returns false for them.
var progression = map[Category][]Stage{
	CategoryLead: {StageNew, StageContacted, StageQualified},
	CategoryDeal: {StageDealQualified, StageProposal, StageNegotiation, StageContract, StageClosedWon},
	CategoryAccount: {StageAccountActive},
}

var stageCategory = func() map[Stage]Category {
	m := make(map[Stage]Category)
	for cat, stages := range categoryStages {
		for _, s := range stages {
			m[s] = cat
		}
	}
	return m
}()

// Known reports whether s is part of the fixed enumeration.
func Known(s Stage) bool {
	_, ok := stageCategory[s]
	return ok
}

// CategoryOf returns the category a stage belongs to. The second return is
// false only for values outside the enumeration, which is a caller bug.
func CategoryOf(s Stage) (Category, bool) {
	cat, ok := stageCategory[s]
	return cat, ok
}

// Next returns the stage immediately following s on its category's forward
// progression, or false if s is terminal or off-path.
func Next(s Stage) (Stage, bool) {
	cat, ok := stageCategory[s]
	if !ok {
		return "", false
	}
	path := progression[cat]
	for i, p := range path {
		if p == s {
			if i+1 < len(path) {
				return path[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// StagesFor returns the fixed ordered stage list for a category.
// The outreach board reuses lead "new"; callers filter by source themselves.
func StagesFor(cat Category) []Stage {
	if cat == CategoryOutreach {
		return []Stage{StageNew}
	}
	src := categoryStages[cat]
	out := make([]Stage, len(src))
	copy(out, src)
	return out
}

// DragAllowed is the drag compatibility matrix. Within-category drags are
// free; the only sanctioned cross-category drag is qualified -> deal_qualified.
// Explicit (menu/conversion) transitions are not subject to this check.
func DragAllowed(from, to Stage) bool {
	fromCat, ok := stageCategory[from]
	if !ok {
		return false
	}
	toCat, ok := stageCategory[to]
	if !ok {
		return false
	}
	if fromCat == toCat {
		return true
	}
	return from == StageQualified && to == StageDealQualified
}
