package storefront

import "context"

// Command is an optimistic local change paired with the remote call that makes it durable.
// Apply runs first; when Commit fails, Compensate undoes the local change.
type Command struct {
	Name       string
	Apply      func()
	Commit     func(ctx context.Context) error
	Compensate func(ctx context.Context, cause error)
}

// Run executes cmd and returns the Commit error, if any
func Run(ctx context.Context, cmd Command) error {
	if cmd.Apply != nil {
		cmd.Apply()
	}
	if err := cmd.Commit(ctx); err != nil {
		if cmd.Compensate != nil {
			cmd.Compensate(ctx, err)
		}
		return err
	}
	return nil
}
