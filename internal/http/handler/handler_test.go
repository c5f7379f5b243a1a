package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
	"github.com/pkthom/japanese-conjugation-search/internal/service"
	serviceMocks "github.com/pkthom/japanese-conjugation-search/internal/service/mocks"
)

func newTestApp() *fiber.App {
	engine := html.New("../../../templates", ".html")
	return fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler(),
	})
}

func taberuSection() *model.Section {
	return &model.Section{
		Title:    "taberu",
		Subtitle: "to eat",
		Slug:     "taberu-verb",
		Source:   "verb",
		Columns:  []string{"word", "polite", "te-form"},
		Rows: [][]string{
			{"taberu", "tabemasu", "tabete"},
		},
	}
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndex(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalog)
	app := newTestApp()
	app.Get("/", Index(mockSvc))

	t.Run("no query shows just the search box", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, "").Return(nil, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := bodyString(t, resp)
		assert.Contains(t, body, `name="q"`)
		assert.NotContains(t, body, `<ul class="results">`)
	})

	t.Run("query renders results", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, "taberu").
			Return([]model.Section{*taberuSection()}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/?q=taberu", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := bodyString(t, resp)
		assert.Contains(t, body, "taberu")
		assert.Contains(t, body, `href="/taberu-verb"`)
		assert.Contains(t, body, "to eat")
	})

	t.Run("search error renders error page", func(t *testing.T) {
		mockSvc.On("Search", mock.Anything, "boom").
			Return(nil, errors.New("load failed")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/?q=boom", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestDetail(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalog)
	app := newTestApp()
	app.Get("/:slug", Detail(mockSvc))

	t.Run("renders the conjugation table", func(t *testing.T) {
		mockSvc.On("BySlug", mock.Anything, "taberu-verb").
			Return(taberuSection(), nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/taberu-verb", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := bodyString(t, resp)
		assert.Contains(t, body, "tabemasu")
		assert.Contains(t, body, "tabete")
		// First column is dropped from the table body.
		assert.Contains(t, body, "<th>polite</th>")
		assert.NotContains(t, body, "<th>word</th>")
	})

	t.Run("unknown slug renders 404 page", func(t *testing.T) {
		mockSvc.On("BySlug", mock.Anything, "missing").
			Return(nil, service.ErrSectionNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, bodyString(t, resp), "missing")
	})
}

func TestHealth(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCatalog)
		mockSvc.On("Status").Return(service.Status{Ready: true, Age: 0, Sections: 2})

		app := newTestApp()
		app.Get("/health", Health(mockSvc))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, bodyString(t, resp), "OK (cache age:")
	})

	t.Run("not ready but warmable", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCatalog)
		mockSvc.On("Status").Return(service.Status{}).Once()
		mockSvc.On("Warm", mock.Anything).Return(nil).Once()
		mockSvc.On("Status").Return(service.Status{Ready: true, Sections: 2}).Once()

		app := newTestApp()
		app.Get("/health", Health(mockSvc))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("warm failure yields 503", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCatalog)
		mockSvc.On("Status").Return(service.Status{}).Once()
		mockSvc.On("Warm", mock.Anything).Return(service.ErrNoDatasets).Once()

		app := newTestApp()
		app.Get("/health", Health(mockSvc))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListSections(t *testing.T) {
	sections := []model.Section{
		{Title: "a", Slug: "a-verb", Source: "verb"},
		{Title: "b", Slug: "b-verb", Source: "verb"},
		{Title: "c", Slug: "c-verb", Source: "verb"},
	}

	mockSvc := new(serviceMocks.MockCatalog)
	app := newTestApp()
	app.Get("/api/sections", ListSections(mockSvc))

	t.Run("pagination", func(t *testing.T) {
		mockSvc.On("Sections", mock.Anything).Return(sections, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections?limit=2&offset=1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result SectionListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, 3, result.Total)
		require.Len(t, result.Items, 2)
		assert.Equal(t, "b-verb", result.Items[0].Slug)
	})

	t.Run("offset past the end", func(t *testing.T) {
		mockSvc.On("Sections", mock.Anything).Return(sections, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections?offset=10", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result SectionListResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Empty(t, result.Items)
		assert.Equal(t, 3, result.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Sections", mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestGetSection(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalog)
	app := newTestApp()
	app.Get("/api/sections/:slug", GetSection(mockSvc))

	t.Run("found", func(t *testing.T) {
		mockSvc.On("BySlug", mock.Anything, "taberu-verb").
			Return(taberuSection(), nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections/taberu-verb", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var sec model.Section
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sec))
		assert.Equal(t, "taberu", sec.Title)
		assert.Len(t, sec.Rows, 1)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("BySlug", mock.Anything, "missing").
			Return(nil, service.ErrSectionNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/sections/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestSearchSections(t *testing.T) {
	mockSvc := new(serviceMocks.MockCatalog)
	app := newTestApp()
	app.Get("/api/search", SearchSections(mockSvc))

	mockSvc.On("Search", mock.Anything, "taberu").
		Return([]model.Section{*taberuSection()}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/search?q=taberu", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result SectionListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "taberu-verb", result.Items[0].Slug)
}
