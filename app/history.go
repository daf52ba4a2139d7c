package app

import (
	"context"

	"memo/history"
)

// SaveLast saves the newest command in histfile that is not an
// invocation of self, then lists. With nothing usable it only lists.
func (a *App) SaveLast(ctx context.Context, histfile, self string) error {
	cmd, err := history.LastCommand(histfile, self)
	if err != nil {
		return err
	}
	if cmd == "" {
		a.logger.Debug("no history command to save", "histfile", histfile)
		return a.List(ctx, "", a.opts.Limit)
	}
	return a.Save(ctx, cmd)
}
