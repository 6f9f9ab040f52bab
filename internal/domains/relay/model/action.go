package model

import (
	"strings"
)

// Action is a caller-facing relay action.
type Action string

const (
	ActionIncrement         Action = "increment"
	ActionSubmitScore       Action = "submitScore"
	ActionCompositeGameOver Action = "compositeGameOver"
	ActionPowerupAlias      Action = "powerupAlias"
)

// Operation is the effective contract call an action resolves to.
type Operation string

const (
	OperationIncrementCounter Operation = "increment-counter"
	OperationRecordScore      Operation = "record-score"
)

// Wire names used by the game client, plus the canonical names.
var actionAliases = map[string]Action{
	"click":                         ActionIncrement,
	string(ActionIncrement):         ActionIncrement,
	"powerup":                       ActionPowerupAlias,
	string(ActionPowerupAlias):      ActionPowerupAlias,
	string(ActionSubmitScore):       ActionSubmitScore,
	"game_over":                     ActionCompositeGameOver,
	string(ActionCompositeGameOver): ActionCompositeGameOver,
}

// ParseAction maps a raw action name to a known Action.
func ParseAction(raw string) (Action, bool) {
	action, ok := actionAliases[strings.TrimSpace(raw)]
	return action, ok
}

func (a Action) String() string {
	return string(a)
}
