package storage

import (
	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/storage"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (storage.BlobStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewLocalBlobStore(cfg.UploadDir, cfg.PublicBaseURL)
	})
}
