package storage

import (
	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/logger"
)

// New builds the archive backend from configuration. Returns nil when no
// storage is configured; archiving is optional and callers treat a nil
// Storage as "keep local files only".
func New(cfg *config.StorageConfig) (Storage, error) {
	if !cfg.Enabled() {
		logger.Debug("object storage not configured, archiving disabled")
		return nil, nil
	}
	store, err := NewS3Storage(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("object storage initialized (bucket=%s)", cfg.Bucket)
	return store, nil
}
