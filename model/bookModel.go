// model/bookModel.go
package model

type Book struct {
	ID        int64  `json:"bookId"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	Available bool   `json:"available"`
}

// BookPatch carries a partial book update. Unset fields are left untouched.
type BookPatch struct {
	Title     Field[string] `json:"title"`
	Author    Field[string] `json:"author"`
	Genre     Field[string] `json:"genre"`
	Available Field[bool]   `json:"available"`
}

// BookFilter narrows a book listing. Empty strings mean no constraint.
type BookFilter struct {
	AvailableOnly bool
	Title         string
	Author        string
	Genre         string
}
