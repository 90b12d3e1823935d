package structure

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

var testNow = time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	store := database.NewMemoryStore(500)
	structure := services.NewStructureService(store, "GEC", zap.NewNop(), services.WithClock(func() time.Time { return testNow }))
	deletion := services.NewDeletionService(store, "GEC", zap.NewNop())
	h := NewStructureHandler(structure, deletion)
	h.now = func() time.Time { return testNow }

	app := fiber.New()
	app.Get("/structure/tree", h.Tree)
	app.Get("/structure/current-year", h.CurrentYear)

	degrees := app.Group("/degrees")
	degrees.Get("/", h.ListDegrees)
	degrees.Post("/", h.CreateDegree)
	degrees.Get("/:degree_id", h.GetDegree)
	degrees.Put("/:degree_id", h.UpdateDegree)
	degrees.Delete("/:degree_id", h.DeleteDegree)
	degrees.Get("/:degree_id/streams", h.ListStreams)
	degrees.Post("/:degree_id/streams", h.CreateStream)
	degrees.Delete("/:degree_id/streams/:stream_id", h.DeleteStream)

	batches := degrees.Group("/:degree_id/streams/:stream_id/batches")
	batches.Get("/", h.ListBatches)
	batches.Post("/", h.CreateBatch)
	batches.Get("/:batch_id", h.GetBatch)
	batches.Delete("/:batch_id", h.DeleteBatch)
	batches.Post("/:batch_id/promote", h.PromoteBatch)
	batches.Get("/:batch_id/years", h.ListYears)
	batches.Get("/:batch_id/years/:year_id/semesters", h.ListSemesters)

	sections := batches.Group("/:batch_id/years/:year_id/semesters/:semester_id/sections")
	sections.Get("/", h.ListSections)
	sections.Post("/", h.CreateSection)
	sections.Get("/:section_id", h.GetSection)
	sections.Delete("/:section_id", h.DeleteSection)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestDegreeEndpoints(t *testing.T) {
	app := setupApp(t)

	status, env := call(t, app, http.MethodPost, "/degrees", CreateDegreeRequest{Name: "B.Tech", Duration: 4})
	require.Equal(t, fiber.StatusCreated, status)
	var degree model.Degree
	require.NoError(t, json.Unmarshal(env.Data, &degree))
	assert.Equal(t, "btech", degree.ID)
	assert.Equal(t, 3, degree.StreamCount)

	status, env = call(t, app, http.MethodPost, "/degrees", CreateDegreeRequest{Name: "B.Tech", Duration: 4})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = call(t, app, http.MethodPost, "/degrees", map[string]interface{}{"name": "MCA"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "duration")

	status, env = call(t, app, http.MethodPost, "/degrees/btech/streams", CreateStreamRequest{Name: "  Robotics \x00"})
	assert.Equal(t, fiber.StatusCreated, status)
	var stream model.Stream
	require.NoError(t, json.Unmarshal(env.Data, &stream))
	assert.Equal(t, "robotics", stream.ID)
	assert.Equal(t, "Robotics", stream.Name)

	status, env = call(t, app, http.MethodGet, "/degrees/btech", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &degree))
	assert.Equal(t, 4, degree.StreamCount)

	status, _ = call(t, app, http.MethodDelete, "/degrees/btech/streams/robotics", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var streams []model.Stream
	status, env = call(t, app, http.MethodGet, "/degrees/btech/streams", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &streams))
	assert.Len(t, streams, 3)

	status, env = call(t, app, http.MethodGet, "/degrees/mba", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = call(t, app, http.MethodDelete, "/degrees/btech", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/degrees/btech/streams", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestBatchEndpoints(t *testing.T) {
	app := setupApp(t)
	status, _ := call(t, app, http.MethodPost, "/degrees", CreateDegreeRequest{Name: "MCA", Duration: 2})
	require.Equal(t, fiber.StatusCreated, status)

	base := "/degrees/mca/streams/general/batches"
	status, env := call(t, app, http.MethodPost, base, CreateBatchRequest{StartYear: 2024})
	require.Equal(t, fiber.StatusCreated, status)
	var batch model.Batch
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.Equal(t, 2026, batch.EndYear, "duration defaults to the degree's")
	assert.Equal(t, "2nd Year", batch.CurrentYear)

	status, _ = call(t, app, http.MethodPost, base, CreateBatchRequest{StartYear: 2024, EndYear: 2030})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = call(t, app, http.MethodPost, "/degrees/mca/streams/finance/batches", CreateBatchRequest{StartYear: 2024})
	assert.Equal(t, fiber.StatusNotFound, status)

	batchPath := base + "/" + batch.ID
	var years []model.Year
	status, env = call(t, app, http.MethodGet, batchPath+"/years", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &years))
	require.Len(t, years, 2)

	var semesters []model.Semester
	_, env = call(t, app, http.MethodGet, batchPath+"/years/2-year/semesters", nil)
	require.NoError(t, json.Unmarshal(env.Data, &semesters))
	require.Len(t, semesters, 2)
	assert.Equal(t, 3, semesters[0].Number)

	sectionsPath := batchPath + "/years/2-year/semesters/3-sem/sections"
	status, env = call(t, app, http.MethodPost, sectionsPath, CreateSectionRequest{Name: "Section B"})
	assert.Equal(t, fiber.StatusCreated, status)
	var sectionB model.Section
	require.NoError(t, json.Unmarshal(env.Data, &sectionB))

	var sections []model.Section
	_, env = call(t, app, http.MethodGet, sectionsPath, nil)
	require.NoError(t, json.Unmarshal(env.Data, &sections))
	assert.Len(t, sections, 2)

	var detail model.SectionDetail
	status, env = call(t, app, http.MethodGet, sectionsPath+"/sec-a", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Len(t, detail.Collections, 6)

	status, _ = call(t, app, http.MethodDelete, sectionsPath+"/sec-a", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = call(t, app, http.MethodDelete, sectionsPath+"/"+sectionB.ID, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = call(t, app, http.MethodPost, batchPath+"/promote", PromoteBatchRequest{Years: 1})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.Equal(t, "Graduated", batch.CurrentYear)

	status, env = call(t, app, http.MethodDelete, batchPath, nil)
	require.Equal(t, fiber.StatusOK, status)
	var result services.DeleteResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Greater(t, result.Deleted, 0)

	status, _ = call(t, app, http.MethodGet, batchPath, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCreateBatch_SpansDegreeDuration(t *testing.T) {
	app := setupApp(t)
	status, _ := call(t, app, http.MethodPost, "/degrees", CreateDegreeRequest{Name: "B.Tech", Duration: 4})
	require.Equal(t, fiber.StatusCreated, status)
	base := "/degrees/btech/streams/cse/batches"

	// Fields outside the request type are ignored; the degree decides
	status, env := call(t, app, http.MethodPost, base, map[string]interface{}{"startYear": 2024, "duration": 2})
	require.Equal(t, fiber.StatusCreated, status)
	var batch model.Batch
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.Equal(t, 2028, batch.EndYear)

	var years []model.Year
	_, env = call(t, app, http.MethodGet, base+"/"+batch.ID+"/years", nil)
	require.NoError(t, json.Unmarshal(env.Data, &years))
	assert.Len(t, years, 4)

	status, env = call(t, app, http.MethodPost, base, CreateBatchRequest{StartYear: 2024, EndYear: 2026})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "4 years")
}

func TestCurrentYear(t *testing.T) {
	app := setupApp(t)

	status, env := call(t, app, http.MethodGet, "/structure/current-year?start_year=2023&end_year=2027", nil)
	require.Equal(t, fiber.StatusOK, status)
	var out struct {
		CurrentYear string `json:"currentYear"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "3rd Year", out.CurrentYear)

	_, env = call(t, app, http.MethodGet, "/structure/current-year?start_year=2023&end_year=2027&promoted_years=1&start_month=11", nil)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "3rd Year", out.CurrentYear)

	status, _ = call(t, app, http.MethodGet, "/structure/current-year?end_year=2027", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = call(t, app, http.MethodGet, "/structure/current-year?start_year=2023&end_year=2027&start_month=13", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestTreeEndpoint(t *testing.T) {
	app := setupApp(t)
	_, _ = call(t, app, http.MethodPost, "/degrees", CreateDegreeRequest{Name: "BBA", Duration: 3})

	status, env := call(t, app, http.MethodGet, "/structure/tree", nil)
	require.Equal(t, fiber.StatusOK, status)
	var tree model.StructureTree
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	assert.Equal(t, "GEC", tree.CollegeID)
	require.Len(t, tree.Degrees, 1)
	assert.Equal(t, "BBA", tree.Degrees[0].Name)
}
