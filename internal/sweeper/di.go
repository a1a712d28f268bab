package sweeper

import (
	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/relay"
	"github.com/airchat/globaltalk/internal/repository"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Sweeper, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		coord := do.MustInvoke[*relay.Coordinator](i)
		return New(repo, coord, Options{
			Interval:     cfg.SweepInterval,
			InitialDelay: cfg.SweepInitialDelay,
			BatchSize:    cfg.SweepBatchSize,
		}), nil
	})
}
