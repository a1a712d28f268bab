package relay

import (
	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/identity"
	"github.com/airchat/globaltalk/internal/registry"
	"github.com/airchat/globaltalk/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*registry.Registry, error) {
		return registry.New(), nil
	})
	do.Provide(injector, func(i do.Injector) (*identity.Assigner, error) {
		return identity.NewAssigner(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Coordinator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		reg := do.MustInvoke[*registry.Registry](i)
		assigner := do.MustInvoke[*identity.Assigner](i)
		return NewCoordinator(cfg, repo, reg, assigner), nil
	})
}
