package book

type CreateBookReq struct {
	Title     string `json:"title" validate:"required" example:"Dune"`
	Author    string `json:"author" validate:"required" example:"Frank Herbert"`
	Genre     string `json:"genre" example:"Science Fiction"`
	Available *bool  `json:"available"`
}

// UpdateBookReq documents the PUT body. Omitted fields are kept; null genre
// clears it.
type UpdateBookReq struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Genre     *string `json:"genre"`
	Available *bool   `json:"available"`
}
