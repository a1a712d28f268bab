package ws

import (
	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/internal/relay"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		coord := do.MustInvoke[*relay.Coordinator](i)
		return NewHandler(coord), nil
	})
}
