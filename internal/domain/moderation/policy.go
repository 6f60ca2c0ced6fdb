package moderation

// DecideAction maps a user's prior violation count to the penalty for the
// next infraction: first offence warns, second suspends for 7 days, third
// and beyond ban permanently.
func DecideAction(priorViolations int) (Action, int) {
	switch {
	case priorViolations == 0:
		return ActionWarn, 0
	case priorViolations == 1:
		return ActionSuspend, SuspensionDays
	default:
		return ActionBan, 0
	}
}
