package models

// Task is a single to-do item.
type Task struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// TaskPatch carries the fields of a partial task update. A nil field was not
// provided by the client.
type TaskPatch struct {
	Name *string `json:"name"`
	Done *bool   `json:"done"`
}

// IsEmpty reports whether the patch names no field at all.
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Done == nil
}
