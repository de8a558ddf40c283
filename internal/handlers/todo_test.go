package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"todoboard/internal/dto"
	"todoboard/internal/flash"
	"todoboard/internal/query"
	"todoboard/internal/repo"
	"todoboard/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, r repo.TodoRepo, clk clock.Clock, fs *flash.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewTodoHandler(service.NewTodoService(r, clk, time.UTC), fs, zap.NewNop())

	e := gin.New()
	e.Use(RequestLogger(zap.NewNop()))
	api := e.Group("/api/v1")
	api.GET("/todos", h.List)
	api.GET("/todos/stats", h.Stats)
	api.POST("/todos/bulk-action", h.BulkAction)
	api.GET("/todos/:id", h.GetByID)
	api.POST("/todos", h.Create)
	api.PATCH("/todos/:id", h.Update)
	api.PATCH("/todos/:id/toggle", h.Toggle)
	api.DELETE("/todos/:id", h.Delete)
	return e
}

type testServer struct {
	router *gin.Engine
	clock  *clock.Mock
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(start)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &testServer{
		router: newRouter(t, repo.NewMemTodoRepo(clk), clk, flash.NewStore(rdb, time.Minute)),
		clock:  clk,
	}
}

// do sends a request, carrying the flash cookie between calls.
func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			s.cookie = c
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/todos",
		`{"title":"Write report","description":"Q1","priority":"high","due_date":"2026-03-12"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	created := decode[dto.TodoMessageResponse](t, rec)
	assert.Equal(t, "Todo created successfully.", created.Message)
	assert.Equal(t, "Write report", created.Todo.Title)
	assert.Equal(t, 3, created.Todo.PriorityLevel)
	assert.False(t, created.Todo.Completed)
	require.NotNil(t, created.Todo.DueDate)
	assert.True(t, created.Todo.DueDate.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)))

	rec = s.do(t, http.MethodGet, "/api/v1/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Todo.ID, decode[dto.TodoResponse](t, rec).ID)
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/todos", `{"priority":"urgent","due_date":"2026-03-01"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[dto.ValidationErrorResponse](t, rec)
	assert.Equal(t, []string{"The title field is required."}, body.Errors["title"])
	assert.Equal(t, []string{"The selected priority is invalid."}, body.Errors["priority"])
	assert.Contains(t, body.Errors, "due_date")

	rec = s.do(t, http.MethodPost, "/api/v1/todos", `{"title":5,"priority":"low"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decode[dto.ValidationErrorResponse](t, rec)
	assert.Equal(t, []string{"The title field must be a string."}, body.Errors["title"])

	rec = s.do(t, http.MethodPost, "/api/v1/todos", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/todos/stats", "")
	assert.Equal(t, 0, decode[dto.StatsResponse](t, rec).Total, "nothing was written")
}

func TestUpdatePartial(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/todos",
		`{"title":"Draft","description":"notes","priority":"low","due_date":"2026-03-20"}`)

	rec := s.do(t, http.MethodPatch, "/api/v1/todos/1", `{"description":null,"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[dto.TodoMessageResponse](t, rec)
	assert.Equal(t, "Todo updated successfully.", got.Message)
	assert.Equal(t, "Draft", got.Todo.Title)
	assert.Nil(t, got.Todo.Description)
	assert.True(t, got.Todo.Completed)
	assert.NotNil(t, got.Todo.DueDate)

	rec = s.do(t, http.MethodPatch, "/api/v1/todos/1", `{"due_date":"2020-01-01"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "past due dates are fine on update")

	rec = s.do(t, http.MethodPatch, "/api/v1/todos/1", `{"title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/todos/42", `{"title":7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/todos/99"},
		{http.MethodGet, "/api/v1/todos/abc"},
		{http.MethodPatch, "/api/v1/todos/99/toggle"},
		{http.MethodDelete, "/api/v1/todos/99"},
	} {
		rec := s.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
}

func TestToggleDeleteAndFlash(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/todos", `{"title":"Walk","priority":"medium"}`)
	require.NotNil(t, s.cookie, "mutations set the flash cookie")

	rec := s.do(t, http.MethodPatch, "/api/v1/todos/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Todo marked as completed.", decode[dto.TodoMessageResponse](t, rec).Message)

	list := decode[dto.ListTodosResponse](t, s.do(t, http.MethodGet, "/api/v1/todos", ""))
	require.NotNil(t, list.Flash)
	assert.Equal(t, "Todo marked as completed.", list.Flash.Text)
	assert.Equal(t, 1, list.Stats.Completed)

	list = decode[dto.ListTodosResponse](t, s.do(t, http.MethodGet, "/api/v1/todos", ""))
	assert.Nil(t, list.Flash, "flash is shown once")

	rec = s.do(t, http.MethodDelete, "/api/v1/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Todo deleted successfully.", decode[dto.MessageResponse](t, rec).Message)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/todos/1", "").Code)
}

func TestListFiltersAndPaging(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 17; i++ {
		s.do(t, http.MethodPost, "/api/v1/todos", `{"title":"Pay bill","priority":"low","due_date":"2026-03-10T18:00:00Z"}`)
	}
	s.do(t, http.MethodPost, "/api/v1/todos", `{"title":"Call mom","priority":"high"}`)

	rec := s.do(t, http.MethodGet, "/api/v1/todos?status=due_today&search=bill&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListTodosResponse](t, rec)
	assert.Equal(t, map[string]string{"status": "due_today", "search": "bill"}, list.Filters)
	assert.Equal(t, 17, list.Todos.Total)
	assert.Equal(t, 2, list.Todos.CurrentPage)
	assert.Equal(t, 2, list.Todos.LastPage)
	assert.Len(t, list.Todos.Data, 2)
	require.NotNil(t, list.Todos.From)
	assert.Equal(t, 16, *list.Todos.From)
	assert.True(t, list.Todos.Data[0].IsDueToday)
	assert.Equal(t, 18, list.Stats.Total)
	assert.Equal(t, 17, list.Stats.DueToday)
	assert.Equal(t, 1, list.Stats.HighPriority)

	rec = s.do(t, http.MethodGet, "/api/v1/todos?page=9", "")
	list = decode[dto.ListTodosResponse](t, rec)
	assert.Empty(t, list.Todos.Data)
	assert.Nil(t, list.Todos.From)
	assert.Empty(t, list.Filters)

	rec = s.do(t, http.MethodGet, "/api/v1/todos?page=999999999999999999", "")
	require.Equal(t, http.StatusOK, rec.Code, "a page far past the data is just empty")
	assert.Empty(t, decode[dto.ListTodosResponse](t, rec).Todos.Data)

	s.clock.Add(7 * time.Hour)
	list = decode[dto.ListTodosResponse](t, s.do(t, http.MethodGet, "/api/v1/todos?status=overdue", ""))
	assert.Equal(t, 17, list.Todos.Total)
	assert.True(t, list.Todos.Data[0].IsOverdue)
}

func TestBulkAction(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.do(t, http.MethodPost, "/api/v1/todos", `{"title":"Task","priority":"medium"}`)
	}

	rec := s.do(t, http.MethodPost, "/api/v1/todos/bulk-action", `{"action":"complete","ids":[1,2,2]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bulk := decode[dto.BulkActionResponse](t, rec)
	assert.Equal(t, "Todos marked as completed.", bulk.Message)
	assert.EqualValues(t, 2, bulk.Affected)

	rec = s.do(t, http.MethodPost, "/api/v1/todos/bulk-action", `{"action":"delete","ids":[3,99]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[dto.ValidationErrorResponse](t, rec)
	assert.Equal(t, []string{"The selected ids.1 is invalid."}, verr.Errors["ids.1"])
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/todos/3", "").Code, "nothing deleted")

	rec = s.do(t, http.MethodPost, "/api/v1/todos/bulk-action", `{"action":"archive","ids":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr = decode[dto.ValidationErrorResponse](t, rec)
	assert.Contains(t, verr.Errors, "action")
	assert.Contains(t, verr.Errors, "ids")

	rec = s.do(t, http.MethodPost, "/api/v1/todos/bulk-action", `{"action":"delete","ids":"1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"The ids field must be an array."}, decode[dto.ValidationErrorResponse](t, rec).Errors["ids"])
}

type brokenRepo struct {
	repo.TodoRepo
}

func (brokenRepo) Count(context.Context, []query.Cond) (int, error) {
	return 0, errors.New("connection refused")
}

func TestStorageFailureIsGeneric(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(start)
	r := newRouter(t, brokenRepo{repo.NewMemTodoRepo(clk)}, clk, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestFlashDisabledWithoutRedis(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(start)
	r := newRouter(t, repo.NewMemTodoRepo(clk), clk, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/todos", strings.NewReader(`{"title":"x","priority":"low"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
