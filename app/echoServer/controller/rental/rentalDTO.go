package rental

import "bookrental/model"

type CreateRentalReq struct {
	UserDetails string      `json:"userDetails" example:"Jane Doe, jane@example.com"`
	RentalDate  *model.Date `json:"rentalDate" swaggertype:"string" example:"2024-03-09"`
	ReturnDate  *model.Date `json:"returnDate" swaggertype:"string" example:"2024-03-23"`
	BookIDs     []int64     `json:"bookIds" validate:"omitempty,dive,gt=0"`
}

// UpdateRentalReq documents the PUT body. Omitted fields are kept; null
// returnDate clears it.
type UpdateRentalReq struct {
	UserDetails *string `json:"userDetails"`
	RentalDate  *string `json:"rentalDate" example:"2024-03-09"`
	ReturnDate  *string `json:"returnDate" example:"2024-03-23"`
}
