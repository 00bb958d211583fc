// Package session resolves and performs the action taken when a countdown expires.
package session

import (
	"context"
	"fmt"
	"os/user"
	"slices"

	"github.com/pkg/errors"
)

// Action is the terminal session operation.
type Action int

const (
	LogOut Action = iota
	LockSession
)

func (action Action) String() string {
	switch action {
	case LogOut:
		return "log out"
	case LockSession:
		return "lock session"
	default:
		return fmt.Sprintf("Action(%d)", int(action))
	}
}

// WarningBody is the countdown notification text.
func (action Action) WarningBody(seconds int) string {
	if action == LockSession {
		return fmt.Sprintf("Locking your session in %d seconds...", seconds)
	}
	return fmt.Sprintf("Logging you out in %d seconds...", seconds)
}

// CancelledBody is the confirmation shown after the user returns.
func (action Action) CancelledBody() string {
	if action == LockSession {
		return "Locking has been canceled."
	}
	return "Logging out has been canceled."
}

// GroupLookup returns the group names of the current credentials.
type GroupLookup interface {
	Groups() ([]string, error)
}

// Resolve picks LockSession when the user belongs to any immune group, else LogOut.
func Resolve(lookup GroupLookup, immune []string) (Action, error) {
	groups, err := lookup.Groups()
	if err != nil {
		return LogOut, errors.Wrap(err, "look up group membership")
	}
	for _, group := range groups {
		if slices.Contains(immune, group) {
			return LockSession, nil
		}
	}
	return LogOut, nil
}

// Backend invokes the session manager.
type Backend interface {
	TerminateSession(ctx context.Context, sessionID string) error
	LockSession(ctx context.Context, sessionID string) error
}

// Perform runs action on the session once.
func Perform(ctx context.Context, backend Backend, action Action, sessionID string) error {
	var err error
	switch action {
	case LogOut:
		err = backend.TerminateSession(ctx, sessionID)
	case LockSession:
		err = backend.LockSession(ctx, sessionID)
	default:
		return errors.Errorf("unknown session action %s", action)
	}
	if err != nil {
		return errors.Wrapf(err, "%s session %s", action, sessionID)
	}
	return nil
}

// UserGroups looks up the groups of the process owner.
type UserGroups struct{}

// Groups returns the names of every group the current user is a member of.
func (UserGroups) Groups() ([]string, error) {
	current, err := user.Current()
	if err != nil {
		return nil, errors.Wrap(err, "current user")
	}
	ids, err := current.GroupIds()
	if err != nil {
		return nil, errors.Wrapf(err, "groups of %s", current.Username)
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		group, err := user.LookupGroupId(id)
		if err != nil {
			return nil, errors.Wrapf(err, "look up group %s", id)
		}
		names = append(names, group.Name)
	}
	return names, nil
}
