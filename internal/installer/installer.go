package installer

import (
	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/config"
	"github.com/wpm-labs/wpm/internal/descriptor"
	"go.uber.org/zap"
)

// Installer runs transactions against one resolved set of options.
type Installer struct {
	opts    config.Options
	fetcher Fetcher
	logger  *zap.Logger
}

// New returns an Installer. A nil logger discards logs.
func New(opts config.Options, fetcher Fetcher, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{opts: opts, fetcher: fetcher, logger: logger}
}

// bucketModules maps descriptor lists to their catalog buckets.
func bucketModules(m descriptor.Manifest) map[catalog.Bucket][]string {
	return map[catalog.Bucket][]string{
		catalog.Enabled:   m.Plugins,
		catalog.Autostart: m.Starters,
		catalog.Disabled:  m.Disabled,
	}
}
