package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/euan-reid/story-server/internal/memory"
	"github.com/euan-reid/story-server/internal/model"
	"github.com/euan-reid/story-server/internal/sqlite"
	"github.com/euan-reid/story-server/pkg/types"
)

// newBackend returns an unattached backend for name.
func newBackend(name string) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// withRepository attaches the configured backend, runs fn against a
// repository over it, and detaches. A detach failure is reported only when
// fn succeeded.
func (a *app) withRepository(ctx context.Context, fn func(*model.Repository) error) (err error) {
	env, err := a.resolve()
	if err != nil {
		return err
	}
	backend, err := newBackend(env.settings.Backend)
	if err != nil {
		return systemErr("%w", err)
	}
	if err := backend.Attach(env.settings.datastoreConfig(env.dataDir)); err != nil {
		return systemErr("attach backend: %w", err)
	}
	a.log.Debug("backend attached", zap.String("backend", env.settings.Backend))
	defer func() {
		if derr := backend.Detach(); derr != nil && err == nil {
			err = systemErr("detach backend: %w", derr)
		}
	}()

	repo := model.NewRepository(backend, model.WithLogger(a.log))
	return fn(repo)
}
