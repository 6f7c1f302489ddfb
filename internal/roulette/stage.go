package roulette

// Stage is a roulette step. Stages only move forward until a reset.
type Stage string

const (
	StageCountry    Stage = "country"
	StageStapleFood Stage = "staple_food"
	StageMainDish   Stage = "main_dish"
	StageComplete   Stage = "complete"
)

// Stages lists the drawable stages in order.
var Stages = []Stage{StageCountry, StageStapleFood, StageMainDish}

// Next returns the stage that follows s.
func (s Stage) Next() Stage {
	switch s {
	case StageCountry:
		return StageStapleFood
	case StageStapleFood:
		return StageMainDish
	default:
		return StageComplete
	}
}

// Selection is the outcome of a roulette run. Fields fill in stage order.
type Selection struct {
	Country    string `json:"country"     example:"Japan"`
	StapleFood string `json:"staple_food" example:"ご飯"`
	MainDish   string `json:"main_dish"   example:"唐揚げ"`
}

// Complete reports whether all three stages have been drawn.
func (s Selection) Complete() bool {
	return s.Country != "" && s.StapleFood != "" && s.MainDish != ""
}

func (s *Selection) set(stage Stage, v string) {
	switch stage {
	case StageCountry:
		s.Country = v
	case StageStapleFood:
		s.StapleFood = v
	case StageMainDish:
		s.MainDish = v
	}
}
