package profiles

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	store   *Store
	handler *Handler
}

// NewFeature creates the profiles feature. A nil store disables it.
func NewFeature(store *Store, clients Evicter, logger *zap.Logger) *Feature {
	return &Feature{store: store, handler: NewHandler(store, clients, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "profiles"
}

// IsEnabled reports whether a profile database is available.
func (f *Feature) IsEnabled() bool {
	return f.store != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
