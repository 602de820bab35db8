package enums

import "fmt"

// LockAction is the kind of entry recorded in an order's lock ledger.
type LockAction string

const (
	LockActionLocked   LockAction = "locked"
	LockActionUnlocked LockAction = "unlocked"
)

func (a LockAction) String() string {
	return string(a)
}

func (a LockAction) IsValid() bool {
	switch a {
	case LockActionLocked, LockActionUnlocked:
		return true
	}
	return false
}

func ParseLockAction(s string) (LockAction, error) {
	a := LockAction(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid lock action: %q", s)
	}
	return a, nil
}
