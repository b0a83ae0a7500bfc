package profiles

import (
	"errors"
	"time"

	"file-storage/core/logger"
	"file-storage/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Evicter drops the cached client of a bucket.
type Evicter interface {
	Evict(bucket string) bool
}

// Handler serves the profile management API.
type Handler struct {
	store   *Store
	clients Evicter
	logger  *zap.Logger
}

// NewHandler creates a handler. Saved or deleted profiles evict the cached
// client of their bucket from clients, which may be nil.
func NewHandler(store *Store, clients Evicter, logger *zap.Logger) *Handler {
	return &Handler{store: store, clients: clients, logger: logger}
}

// ProfileRequest is the body of a profile upsert.
type ProfileRequest struct {
	Type                 string `json:"type"`
	Endpoint             string `json:"endpoint"`
	AccessKey            string `json:"access_key"`
	SecretKey            string `json:"secret_key"`
	Region               string `json:"region"`
	PathStyle            bool   `json:"path_style"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	PresignExpirySeconds int    `json:"presign_expiry_seconds"`
}

func (r ProfileRequest) config(bucket string) storage.Config {
	return storage.Config{
		Type:           r.Type,
		Endpoint:       r.Endpoint,
		AccessKey:      r.AccessKey,
		SecretKey:      r.SecretKey,
		Region:         r.Region,
		Bucket:         bucket,
		PathStyle:      r.PathStyle,
		TimeoutSeconds: r.TimeoutSeconds,
		PresignExpiry:  time.Duration(r.PresignExpirySeconds) * time.Second,
	}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/profiles")
	group.Get("/", h.HandleList)
	group.Get("/:bucket", h.HandleGet)
	group.Put("/:bucket", h.HandlePut)
	group.Delete("/:bucket", h.HandleDelete)
}

// HandleList returns every stored profile.
// @Summary List Profiles
// @Description List stored connection profiles with masked credentials.
// @Tags profiles
// @Produce json
// @Success 200 {array} profiles.Profile
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /profiles [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext())
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to list profiles", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	out := make([]Profile, 0, len(list))
	for _, p := range list {
		out = append(out, p.Masked())
	}
	return c.JSON(out)
}

// HandleGet returns the profile of a bucket.
// @Summary Get Profile
// @Tags profiles
// @Produce json
// @Param bucket path string true "Bucket name"
// @Success 200 {object} profiles.Profile
// @Failure 404 {object} map[string]string "Not Found"
// @Router /profiles/{bucket} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	p, err := h.store.Get(c.UserContext(), c.Params("bucket"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p.Masked())
}

// HandlePut creates or replaces the profile of a bucket.
// @Summary Save Profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param profile body profiles.ProfileRequest true "Connection parameters"
// @Success 200 {object} profiles.Profile
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /profiles/{bucket} [put]
func (h *Handler) HandlePut(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cfg := req.config(c.Params("bucket"))
	if err := cfg.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := cfg.EndpointURL(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p := FromConfig(cfg)
	if err := h.store.Save(c.UserContext(), &p); err != nil {
		return h.fail(c, err)
	}
	h.evict(c, cfg.Bucket)

	return c.JSON(p.Masked())
}

// HandleDelete removes the profile of a bucket.
// @Summary Delete Profile
// @Tags profiles
// @Param bucket path string true "Bucket name"
// @Success 204
// @Failure 404 {object} map[string]string "Not Found"
// @Router /profiles/{bucket} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	if err := h.store.Delete(c.UserContext(), bucket); err != nil {
		return h.fail(c, err)
	}
	h.evict(c, bucket)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) evict(c *fiber.Ctx, bucket string) {
	if h.clients != nil && h.clients.Evict(bucket) {
		logger.WithRayID(h.logger, c).Info("Evicted cached storage client", zap.String("bucket", bucket))
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrProfileNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.logger, c).Error("Profile request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
