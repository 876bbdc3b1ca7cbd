package engine

import (
	"context"
	"fmt"
)

// DeletionStep is one stage of the account deletion cascade.
type DeletionStep string

const (
	StepLedger      DeletionStep = "ledger"
	StepPreferences DeletionStep = "preferences"
	StepRemote      DeletionStep = "remote"
)

var deletionSteps = []DeletionStep{StepLedger, StepPreferences, StepRemote}

// DeletionError reports the step an account deletion stopped at. Steps
// before it completed; ResumeDeletion picks up from Step.
type DeletionError struct {
	Identity string
	Step     DeletionStep
	Err      error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("account deletion failed at %s step: %v", e.Step, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// DeleteAccount logs the active user out and removes their ledger rows,
// preferences and remote record, in that order. Every step is idempotent.
// On failure a *DeletionError names the step to retry.
func (e *Engine) DeleteAccount(ctx context.Context) error {
	identity, err := e.current()
	if err != nil {
		return err
	}
	if err := e.SetIdentity(ctx, nil); err != nil {
		return err
	}
	e.log.Info(ctx, "deleting account", "identity", identity)
	return e.ResumeDeletion(ctx, identity, StepLedger)
}

// ResumeDeletion runs the deletion cascade of identity from step onward.
func (e *Engine) ResumeDeletion(ctx context.Context, identity string, from DeletionStep) error {
	if active, ok := e.Identity(); ok && active == identity {
		return fmt.Errorf("cannot delete the account of the active session")
	}

	started := false
	for _, step := range deletionSteps {
		if step == from {
			started = true
		}
		if !started {
			continue
		}
		if err := e.runDeletionStep(ctx, identity, step); err != nil {
			e.log.Error(ctx, "account deletion step failed", "step", string(step), "error", err)
			return &DeletionError{Identity: identity, Step: step, Err: err}
		}
	}
	if !started {
		return fmt.Errorf("unknown deletion step %q", from)
	}
	e.log.Info(ctx, "account deleted", "identity", identity)
	return nil
}

func (e *Engine) runDeletionStep(ctx context.Context, identity string, step DeletionStep) error {
	switch step {
	case StepLedger:
		n, err := e.ledger.PurgeUser(ctx, identity)
		if err == nil {
			e.log.Debug(ctx, "ledger purged", "records", n)
		}
		return err
	case StepPreferences:
		return e.prefs.DeleteNamespace(ctx, identity)
	case StepRemote:
		return e.sync.DeleteRemote(ctx, identity)
	}
	return fmt.Errorf("unknown deletion step %q", step)
}
