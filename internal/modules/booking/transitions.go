// README: Booking state flow and per-action role permissions.
package booking

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:         {StatusAccepted, StatusCancelled, StatusCancelRequested},
	StatusAccepted:        {StatusStarted, StatusCancelled, StatusCancelRequested},
	StatusCancelRequested: {StatusCancelled},
	StatusStarted:         {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Action string

const (
	ActionCreate        Action = "create"
	ActionView          Action = "view"
	ActionAccept        Action = "accept"
	ActionStart         Action = "start"
	ActionComplete      Action = "complete"
	ActionCancel        Action = "cancel"
	ActionOverride      Action = "override"
	ActionConfirmOnline Action = "confirm_online_payment"
	ActionCollectCash   Action = "collect_cash"
	ActionCorrectFare   Action = "correct_fare"
	ActionRefund        Action = "process_refund"
)

var permissions = map[Action][]Role{
	ActionCreate:        {RoleRider},
	ActionView:          {RoleRider, RoleDriver, RoleAdmin},
	ActionAccept:        {RoleDriver},
	ActionStart:         {RoleDriver},
	ActionComplete:      {RoleDriver},
	ActionCancel:        {RoleRider, RoleDriver, RoleAdmin},
	ActionOverride:      {RoleAdmin},
	ActionConfirmOnline: {RoleAdmin},
	ActionCollectCash:   {RoleDriver, RoleAdmin},
	ActionCorrectFare:   {RoleAdmin},
	ActionRefund:        {RoleAdmin},
}

// Authorize returns ErrNotAuthorized unless role may perform action.
func Authorize(action Action, role Role) error {
	for _, r := range permissions[action] {
		if r == role {
			return nil
		}
	}
	return ErrNotAuthorized
}
