package models

// Dosen is an entry of the supervisor/examiner name registry.
type Dosen struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
