package handlers

import (
	"net/http"
	"strconv"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/dto"
	"todoboard/internal/flash"
	"todoboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listFilters are the query parameters echoed back by List.
var listFilters = []string{"status", "priority", "search", "sort"}

type TodoHandler struct {
	svc   *service.TodoService
	flash *flash.Store
	log   *zap.Logger
}

// NewTodoHandler creates a TodoHandler. fs may be nil, which disables flash
// messages.
func NewTodoHandler(svc *service.TodoService, fs *flash.Store, log *zap.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, flash: fs, log: log}
}

// List godoc
// @Summary      List todos with filters, stats and pagination
// @Tags         todos
// @Produce      json
// @Param        status    query     string  false  "completed, pending, overdue or due_today"
// @Param        priority  query     string  false  "low, medium or high"
// @Param        search    query     string  false  "Substring of title or description"
// @Param        sort      query     string  false  "title, priority, due_date or created"
// @Param        page      query     int     false  "Page number, 15 per page"
// @Success      200  {object}  dto.ListTodosResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	res, err := h.svc.List(c.Request.Context(), service.ListParams{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     page,
	})
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	filters := make(map[string]string)
	for _, k := range listFilters {
		if v, ok := c.GetQuery(k); ok {
			filters[k] = v
		}
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{
		Todos:   pageToResponse(res.Page, res.Now),
		Stats:   statsToResponse(res.Stats),
		Filters: filters,
		Flash:   h.popFlash(c),
	})
}

// Stats godoc
// @Summary      Dashboard counts over all todos
// @Tags         todos
// @Produce      json
// @Success      200  {object}  dto.StatsResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/stats [get]
func (h *TodoHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, statsToResponse(st))
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t, h.svc.Now()))
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoMessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	err := bindJSON(c, &req)
	var res service.Result
	if err == nil {
		res, err = h.svc.Create(c.Request.Context(), service.CreateInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
		})
	}
	record("create", err)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	h.putFlash(c, res.Message)
	c.JSON(http.StatusCreated, dto.TodoMessageResponse{Message: res.Message, Todo: todoToResponse(res.Todo, h.svc.Now())})
}

// Update godoc
// @Summary      Update a todo
// @Description  Only keys present in the body change; null clears description or due_date.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.TodoMessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTodoRequest
	err := bindJSON(c, &req)
	if err != nil {
		// A missing todo wins over a malformed body.
		if _, getErr := h.svc.GetByID(c.Request.Context(), id); getErr != nil {
			err = getErr
		}
	}
	var res service.Result
	if err == nil {
		res, err = h.svc.Update(c.Request.Context(), id, service.UpdateInput{
			Title:       optional(req.Title),
			Description: optional(req.Description),
			Priority:    optional(req.Priority),
			DueDate:     optional(req.DueDate),
			Completed:   optional(req.Completed),
		})
	}
	record("update", err)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	h.putFlash(c, res.Message)
	c.JSON(http.StatusOK, dto.TodoMessageResponse{Message: res.Message, Todo: todoToResponse(res.Todo, h.svc.Now())})
}

// Toggle godoc
// @Summary      Flip a todo between pending and completed
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoMessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id}/toggle [patch]
func (h *TodoHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Toggle(c.Request.Context(), id)
	record("toggle", err)
	if err != nil {
		h.fail(c, "toggle", err)
		return
	}
	h.putFlash(c, res.Message)
	c.JSON(http.StatusOK, dto.TodoMessageResponse{Message: res.Message, Todo: todoToResponse(res.Todo, h.svc.Now())})
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Delete(c.Request.Context(), id)
	record("delete", err)
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	h.putFlash(c, res.Message)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: res.Message})
}

// BulkAction godoc
// @Summary      Complete, reopen or delete several todos at once
// @Description  All ids must exist; otherwise nothing changes.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.BulkActionRequest  true  "Action and ids"
// @Success      200   {object}  dto.BulkActionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/bulk-action [post]
func (h *TodoHandler) BulkAction(c *gin.Context) {
	var req dto.BulkActionRequest
	err := bindJSON(c, &req)
	var res service.BulkResult
	if err == nil {
		res, err = h.svc.Bulk(c.Request.Context(), service.BulkInput{Action: req.Action, IDs: req.IDs})
	}
	record("bulk", err)
	if err != nil {
		h.fail(c, "bulk", err)
		return
	}
	h.putFlash(c, res.Message)
	c.JSON(http.StatusOK, dto.BulkActionResponse{Message: res.Message, Affected: res.Affected})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
		return 0, false
	}
	return id, true
}

func optional[T any](f dto.Field[T]) service.Optional[T] {
	if !f.Set {
		return service.Optional[T]{}
	}
	return service.Optional[T]{Set: true, Value: f.Ptr()}
}

func todoToResponse(t dom.Todo, now time.Time) dto.TodoResponse {
	var due *time.Time
	if t.DueDate != nil {
		d := t.DueDate.In(now.Location())
		due = &d
	}
	return dto.TodoResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Completed:     t.Completed,
		Priority:      string(t.Priority),
		DueDate:       due,
		CreatedAt:     t.CreatedAt.In(now.Location()),
		UpdatedAt:     t.UpdatedAt.In(now.Location()),
		IsOverdue:     t.IsOverdue(now),
		IsDueToday:    t.IsDueToday(now),
		PriorityLevel: t.PriorityLevel(),
	}
}

func pageToResponse(p service.Page, now time.Time) dto.PageResponse {
	out := dto.PageResponse{
		Data:        make([]dto.TodoResponse, len(p.Items)),
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		LastPage:    p.LastPage,
		HasNext:     p.HasNext,
		HasPrev:     p.HasPrev,
	}
	for i := range p.Items {
		out.Data[i] = todoToResponse(p.Items[i], now)
	}
	if len(p.Items) > 0 {
		from, to := p.From, p.To
		out.From, out.To = &from, &to
	}
	return out
}

func statsToResponse(st service.Stats) dto.StatsResponse {
	return dto.StatsResponse{
		Total:        st.Total,
		Completed:    st.Completed,
		Pending:      st.Pending,
		Overdue:      st.Overdue,
		DueToday:     st.DueToday,
		HighPriority: st.HighPriority,
	}
}
