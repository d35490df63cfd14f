package domain

// Action names a guarded mutation requested against an entity.
type Action string

const (
	ActionCancel  Action = "cancel"
	ActionPropose Action = "propose"
	ActionRedeem  Action = "redeem"
	ActionExpire  Action = "expire"
	ActionBan     Action = "ban"
	ActionUnban   Action = "unban"
	ActionPromote Action = "promote"
	ActionDemote  Action = "demote"
	ActionPay     Action = "pay"
	ActionRefund  Action = "refund"
)

// Transition is one legal (from, action) -> to rule.
type Transition[S ~string] struct {
	From   S
	Action Action
	To     S
}

type transitionKey[S ~string] struct {
	from   S
	action Action
}

// TransitionTable holds the legal status transitions of one entity type.
// Every guarded write consults it before touching the store and uses From as
// the conditional filter of the write.
type TransitionTable[S ~string] struct {
	entity string
	rules  map[transitionKey[S]]S
}

func NewTransitionTable[S ~string](entity string, transitions ...Transition[S]) TransitionTable[S] {
	rules := make(map[transitionKey[S]]S, len(transitions))
	for _, t := range transitions {
		rules[transitionKey[S]{from: t.From, action: t.Action}] = t.To
	}
	return TransitionTable[S]{entity: entity, rules: rules}
}

// Next returns the status reached by applying action to current, or an
// ErrInvalidState error naming the rejected transition.
func (t TransitionTable[S]) Next(current S, action Action) (S, error) {
	next, ok := t.rules[transitionKey[S]{from: current, action: action}]
	if !ok {
		var zero S
		return zero, InvalidStatef("cannot %s a %s %s", action, current, t.entity)
	}
	return next, nil
}

// Allows reports whether action is legal from current.
func (t TransitionTable[S]) Allows(current S, action Action) bool {
	_, ok := t.rules[transitionKey[S]{from: current, action: action}]
	return ok
}

// Sources lists every status from which action is legal.
func (t TransitionTable[S]) Sources(action Action) []S {
	var out []S
	for k := range t.rules {
		if k.action == action {
			out = append(out, k.from)
		}
	}
	return out
}

func (t TransitionTable[S]) Entity() string { return t.entity }

// ParseAction validates a client-supplied action against the table.
func (t TransitionTable[S]) ParseAction(raw string) (Action, error) {
	a := Action(raw)
	for k := range t.rules {
		if k.action == a {
			return a, nil
		}
	}
	return "", Validationf("unsupported %s action %q", t.entity, raw)
}
