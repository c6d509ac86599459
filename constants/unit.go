package constants

// Unit is the closed set of quantity units an ingredient may carry.
type Unit string

const (
	UnitPiece Unit = "個"
	UnitGram  Unit = "g"
	UnitML    Unit = "ml"
	UnitBunch Unit = "束"
	UnitStick Unit = "本"
	UnitSheet Unit = "枚"
	UnitPack  Unit = "パック"
)

var allUnits = []Unit{
	UnitPiece,
	UnitGram,
	UnitML,
	UnitBunch,
	UnitStick,
	UnitSheet,
	UnitPack,
}

func UnitsAsStringSlice() []string {
	result := make([]string, len(allUnits))
	for i, u := range allUnits {
		result[i] = string(u)
	}
	return result
}

func (u Unit) Valid() bool {
	for _, x := range allUnits {
		if u == x {
			return true
		}
	}
	return false
}
