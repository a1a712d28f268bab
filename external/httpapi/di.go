package httpapi

import (
	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/external/ws"
	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/relay"
	"github.com/airchat/globaltalk/internal/repository"
	"github.com/airchat/globaltalk/internal/storage"
	"github.com/airchat/globaltalk/internal/translate"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handlers, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		blobs := do.MustInvoke[storage.BlobStore](i)
		gateway := do.MustInvoke[*translate.Gateway](i)
		coord := do.MustInvoke[*relay.Coordinator](i)
		return NewHandlers(cfg, repo, blobs, gateway, coord), nil
	})
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		h := do.MustInvoke[*Handlers](i)
		wsHandler := do.MustInvoke[*ws.Handler](i)
		return NewServer(cfg, h, wsHandler), nil
	})
}
