package objects

import (
	"bytes"
	"errors"

	"file-storage/core/logger"
	"file-storage/core/storage"
	"file-storage/feature/profiles"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for buckets and objects.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the bucket and object routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/buckets")
	group.Get("/", h.HandleListBuckets)
	group.Post("/:bucket", h.HandleEnsureBucket)
	group.Get("/:bucket/exists", h.HandleBucketExists)
	group.Head("/:bucket/objects/*", h.HandleObjectExists)
	group.Put("/:bucket/objects/*", h.HandlePutObject)
	group.Get("/:bucket/objects/*", h.HandleObjectURL)
	group.Delete("/:bucket/objects/*", h.HandleDeleteObject)
}

// HandleListBuckets lists buckets with a built client.
// @Summary List Buckets
// @Tags buckets
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /buckets [get]
func (h *Handler) HandleListBuckets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"buckets": h.service.Buckets()})
}

// HandleEnsureBucket builds the client of a bucket, creating the bucket if absent.
// @Summary Ensure Bucket
// @Description Build the storage client for a bucket. The bucket is created when missing.
// @Tags buckets
// @Produce json
// @Param bucket path string true "Bucket name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid connection parameters"
// @Failure 404 {object} map[string]string "Unknown bucket"
// @Failure 502 {object} map[string]string "Storage unavailable"
// @Router /buckets/{bucket} [post]
func (h *Handler) HandleEnsureBucket(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	if _, err := h.service.Client(c.UserContext(), bucket); err != nil {
		return h.buildFailed(c, err)
	}
	return c.JSON(fiber.Map{"bucket": bucket, "status": "ready"})
}

// HandleBucketExists probes another bucket on the connection of :bucket.
// @Summary Bucket Exists
// @Tags buckets
// @Produce json
// @Param bucket path string true "Bucket whose connection is used"
// @Param name query string true "Bucket to probe"
// @Success 200 {object} map[string]any
// @Router /buckets/{bucket}/exists [get]
func (h *Handler) HandleBucketExists(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter name is required"})
	}

	ok, res, err := h.service.BucketExists(c.UserContext(), c.Params("bucket"), name)
	if err != nil {
		return h.buildFailed(c, err)
	}
	if !ok && !res.NotFound() {
		return h.operationFailed(c, res)
	}
	return c.JSON(fiber.Map{"name": name, "exists": ok})
}

// HandleObjectExists answers 200 when the object exists and 404 otherwise.
// @Summary Object Exists
// @Tags objects
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200
// @Failure 404
// @Router /buckets/{bucket}/objects/{key} [head]
func (h *Handler) HandleObjectExists(c *fiber.Ctx) error {
	ok, res, err := h.service.ObjectExists(c.UserContext(), c.Params("bucket"), c.Params("*"))
	if err != nil {
		return c.SendStatus(buildStatus(err))
	}
	if !ok {
		return c.SendStatus(resultStatus(res))
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandlePutObject uploads the request body under the object key.
// @Summary Put Object
// @Tags objects
// @Accept octet-stream
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string "Invalid key"
// @Router /buckets/{bucket}/objects/{key} [put]
func (h *Handler) HandlePutObject(c *fiber.Ctx) error {
	body := c.Body()
	raw := c.Params("*")

	res, err := h.service.Put(c.UserContext(), c.Params("bucket"), raw, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return h.buildFailed(c, err)
	}
	if !res.OK() {
		return h.operationFailed(c, res)
	}
	return c.JSON(fiber.Map{"key": storage.NormalizeKey(raw), "size": len(body)})
}

// HandleObjectURL returns a temporary (presigned) or public URL for the object.
// @Summary Object URL
// @Tags objects
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Param url query string false "temporary (default) or public"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Not Found"
// @Router /buckets/{bucket}/objects/{key} [get]
func (h *Handler) HandleObjectURL(c *fiber.Ctx) error {
	kind := URLKind(c.Query("url", string(URLTemporary)))
	if kind != URLTemporary && kind != URLPublic {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url must be temporary or public"})
	}

	u, res, err := h.service.URL(c.UserContext(), c.Params("bucket"), c.Params("*"), kind)
	if err != nil {
		return h.buildFailed(c, err)
	}
	if !res.OK() {
		return h.operationFailed(c, res)
	}
	return c.JSON(fiber.Map{"url": u.String()})
}

// HandleDeleteObject removes the object.
// @Summary Delete Object
// @Tags objects
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 204
// @Router /buckets/{bucket}/objects/{key} [delete]
func (h *Handler) HandleDeleteObject(c *fiber.Ctx) error {
	res, err := h.service.Delete(c.UserContext(), c.Params("bucket"), c.Params("*"))
	if err != nil {
		return h.buildFailed(c, err)
	}
	if !res.OK() {
		return h.operationFailed(c, res)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) buildFailed(c *fiber.Ctx, err error) error {
	status := buildStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.WithRayID(h.logger, c).Error("Storage client unavailable", zap.String("bucket", c.Params("bucket")), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *Handler) operationFailed(c *fiber.Ctx, res storage.Result) error {
	msg := res.Status.String()
	if res.Err != nil {
		msg = res.Err.Error()
	}
	return c.Status(resultStatus(res)).JSON(fiber.Map{"error": msg, "status": res.Status.String()})
}

func buildStatus(err error) int {
	var verr *storage.ValidationError
	var eerr *storage.InvalidEndpointError
	switch {
	case errors.Is(err, profiles.ErrUnknownBucket):
		return fiber.StatusNotFound
	case errors.As(err, &verr), errors.As(err, &eerr):
		return fiber.StatusBadRequest
	case errors.Is(err, storage.ErrPermissionDenied):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadGateway
	}
}

func resultStatus(res storage.Result) int {
	switch res.Status {
	case storage.StatusSuccess:
		return fiber.StatusOK
	case storage.StatusNotFound:
		return fiber.StatusNotFound
	case storage.StatusPermissionDenied:
		return fiber.StatusForbidden
	case storage.StatusInvalidArgument:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusBadGateway
	}
}
