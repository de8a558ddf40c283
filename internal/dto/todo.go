package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

// Field is a JSON field of a partial update. Set reports whether the key was
// present; Null whether it was sent as null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// Ptr returns nil for null, else a pointer to the value.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

type CreateTodoRequest struct {
	Title       string  `json:"title" example:"Write report"`
	Description *string `json:"description" example:"Quarterly numbers"`
	Priority    string  `json:"priority" example:"medium" enums:"low,medium,high"`
	// Date ("2026-03-10") or datetime; read in the app timezone when it has no offset.
	DueDate *string `json:"due_date" example:"2026-03-10T17:00:00Z"`
}

// UpdateTodoRequest changes only the keys present in the body.
type UpdateTodoRequest struct {
	Title       Field[string] `json:"title" swaggertype:"string"`
	Description Field[string] `json:"description" swaggertype:"string"`
	Priority    Field[string] `json:"priority" swaggertype:"string" enums:"low,medium,high"`
	DueDate     Field[string] `json:"due_date" swaggertype:"string"`
	Completed   Field[bool]   `json:"completed" swaggertype:"boolean"`
}

type BulkActionRequest struct {
	Action string  `json:"action" example:"complete" enums:"complete,incomplete,delete"`
	IDs    []int64 `json:"ids" example:"1,2,3"`
}

type TodoResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description"`
	Completed     bool       `json:"completed"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	IsOverdue     bool       `json:"is_overdue"`
	IsDueToday    bool       `json:"is_due_today"`
	PriorityLevel int        `json:"priority_level"`
}

type PageResponse struct {
	Data        []TodoResponse `json:"data"`
	CurrentPage int            `json:"current_page"`
	PerPage     int            `json:"per_page"`
	Total       int            `json:"total"`
	LastPage    int            `json:"last_page"`
	From        *int           `json:"from"`
	To          *int           `json:"to"`
	HasNext     bool           `json:"has_next"`
	HasPrev     bool           `json:"has_prev"`
}

type StatsResponse struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	Overdue      int `json:"overdue"`
	DueToday     int `json:"due_today"`
	HighPriority int `json:"high_priority"`
}

type FlashResponse struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ListTodosResponse struct {
	Todos PageResponse  `json:"todos"`
	Stats StatsResponse `json:"stats"`
	// Filters echoes the listing query parameters that were sent.
	Filters map[string]string `json:"filters"`
	Flash   *FlashResponse    `json:"flash,omitempty"`
}

type TodoMessageResponse struct {
	Message string       `json:"message"`
	Todo    TodoResponse `json:"todo"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type BulkActionResponse struct {
	Message  string `json:"message"`
	Affected int64  `json:"affected"`
}

type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
