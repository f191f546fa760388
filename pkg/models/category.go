package models

type Category struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"nama" db:"nama"`
}

type CategoryRequest struct {
	Name string `json:"nama" binding:"required"`
}
