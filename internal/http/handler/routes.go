package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pkthom/japanese-conjugation-search/internal/config"
	"github.com/pkthom/japanese-conjugation-search/internal/model"
	"github.com/pkthom/japanese-conjugation-search/internal/service"
	"github.com/pkthom/japanese-conjugation-search/internal/storage"
)

// SectionSummary is the list-item DTO for API responses: a section without
// its rows.
type SectionSummary struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Slug     string `json:"slug"`
	Source   string `json:"source"`
}

// SectionListResult is the paginated API response for section listings.
type SectionListResult struct {
	Items []SectionSummary `json:"data"`
	Total int              `json:"total"`
}

func summarize(sections []model.Section) []SectionSummary {
	out := make([]SectionSummary, 0, len(sections))
	for _, s := range sections {
		out = append(out, SectionSummary{
			Title:    s.Title,
			Subtitle: s.Subtitle,
			Slug:     s.Slug,
			Source:   s.Source,
		})
	}
	return out
}

// RegisterRoutes attaches all HTTP routes to the provided Fiber app. Page
// routes render templates; /api and /admin speak JSON. The detail route is a
// catch-all and must be registered last.
func RegisterRoutes(app *fiber.App, catalog service.Catalog, store storage.Storage, cfg *config.AppConfig) {
	app.Get("/", Index(catalog))
	app.Get("/health", Health(catalog))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/sections", ListSections(catalog))
	api.Get("/sections/:slug", GetSection(catalog))
	api.Get("/search", SearchSections(catalog))

	// Admin dataset management is available only when a token is configured
	// and an object store is wired.
	if cfg.AdminToken != "" && store != nil {
		keys := map[string]string{
			"verb":      cfg.Dataset.VerbObjectKey,
			"adjective": cfg.Dataset.AdjectiveObjectKey,
		}
		admin := app.Group("/admin", AdminAuth(cfg.AdminToken))
		admin.Put("/datasets/:source", UploadDataset(store, catalog, keys))
		admin.Delete("/datasets/:source", DeleteDataset(store, catalog, keys))
		admin.Get("/datasets/:source/url", DatasetURL(store, keys))
	}

	app.Get("/:slug", Detail(catalog))
}

// Index serves the search page. With no query it shows just the search box;
// with ?q= it also renders matching sections.
func Index(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")

		results, err := catalog.Search(c.UserContext(), query)
		if err != nil {
			return renderErrorPage(c, fiber.StatusInternalServerError, "An error occurred while searching")
		}

		return c.Render("index", fiber.Map{
			"Query":   query,
			"Results": summarize(results),
		})
	}
}

// Detail serves one section's conjugation table.
func Detail(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")

		section, err := catalog.BySlug(c.UserContext(), slug)
		if err != nil {
			if errors.Is(err, service.ErrSectionNotFound) {
				return renderErrorPage(c, fiber.StatusNotFound, "Page not found: "+slug)
			}
			return renderErrorPage(c, fiber.StatusInternalServerError, "An error occurred while loading the page")
		}

		return c.Render("detail", fiber.Map{
			"Title":    section.Title,
			"Subtitle": section.Subtitle,
			"Columns":  section.DisplayColumns(),
			"Rows":     section.DisplayRows(),
		})
	}
}

// Health reports dataset cache status as plain text. A catalog that cannot
// produce a snapshot at all yields 503.
func Health(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := catalog.Status()
		if !st.Ready {
			if err := catalog.Warm(c.UserContext()); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dataset unavailable")
			}
			st = catalog.Status()
		}
		if !st.Ready {
			return c.SendString("OK (cache not ready)")
		}
		return c.SendString(fmt.Sprintf("OK (cache age: %ds)", int(st.Age.Seconds())))
	}
}

// LivenessProbe is a bare liveness check that never touches the catalog.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListSections returns paginated section summaries.
func ListSections(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		if limit <= 0 {
			limit = 10
		}
		if offset < 0 {
			offset = 0
		}

		sections, err := catalog.Sections(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		total := len(sections)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}

		return c.JSON(SectionListResult{
			Items: summarize(sections[offset:end]),
			Total: total,
		})
	}
}

// GetSection returns one section with its rows.
func GetSection(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		section, err := catalog.BySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			if errors.Is(err, service.ErrSectionNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "section not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(section)
	}
}

// SearchSections returns matching section summaries for ?q=.
func SearchSections(catalog service.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		results, err := catalog.Search(c.UserContext(), c.Query("q"))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(SectionListResult{
			Items: summarize(results),
			Total: len(results),
		})
	}
}
