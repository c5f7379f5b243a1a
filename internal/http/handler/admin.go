package handler

import (
	"bytes"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pkthom/japanese-conjugation-search/internal/service"
	"github.com/pkthom/japanese-conjugation-search/internal/storage"
)

const presignExpiry = 15 * time.Minute

// AdminAuth guards the admin group with a bearer token.
func AdminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		provided, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid admin token")
		}
		return c.Next()
	}
}

func resolveKey(c *fiber.Ctx, keys map[string]string) (string, bool) {
	key, ok := keys[c.Params("source")]
	return key, ok
}

// UploadDataset stores the request body as the dataset's CSV object and
// invalidates the catalog cache so the next request reloads.
func UploadDataset(store storage.Storage, catalog service.Catalog, keys map[string]string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := resolveKey(c, keys)
		if !ok {
			return writeError(c, fiber.StatusNotFound, "UNKNOWN_DATASET", "unknown dataset source")
		}

		body := c.Body()
		if len(body) == 0 {
			return writeError(c, fiber.StatusBadRequest, "EMPTY_BODY", "request body is required")
		}

		info, err := store.Put(c.UserContext(), key, bytes.NewReader(body), int64(len(body)), "text/csv")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		catalog.Invalidate()

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"key":  info.Key,
			"size": info.Size,
			"etag": info.ETag,
		})
	}
}

// DeleteDataset removes the dataset's CSV object and invalidates the cache.
func DeleteDataset(store storage.Storage, catalog service.Catalog, keys map[string]string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := resolveKey(c, keys)
		if !ok {
			return writeError(c, fiber.StatusNotFound, "UNKNOWN_DATASET", "unknown dataset source")
		}

		if err := store.Delete(c.UserContext(), key); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		catalog.Invalidate()

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DatasetURL returns a presigned download URL for the dataset's CSV object.
func DatasetURL(store storage.Storage, keys map[string]string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := resolveKey(c, keys)
		if !ok {
			return writeError(c, fiber.StatusNotFound, "UNKNOWN_DATASET", "unknown dataset source")
		}

		u, err := store.PresignGet(c.UserContext(), key, presignExpiry)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return c.JSON(fiber.Map{
			"url":        u,
			"expires_in": int(presignExpiry.Seconds()),
		})
	}
}
