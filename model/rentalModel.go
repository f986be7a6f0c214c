// model/rentalModel.go
package model

type Rental struct {
	ID          int64  `json:"rentalId"`
	UserDetails string `json:"userDetails"`
	RentalDate  Date   `json:"rentalDate"`
	ReturnDate  *Date  `json:"returnDate"`
}

// Open reports whether the rental has not been returned yet.
func (r Rental) Open() bool { return r.ReturnDate == nil }

// RentalItem links one rental to one book.
type RentalItem struct {
	ID       int64 `json:"rentalItemId"`
	RentalID int64 `json:"rentalId"`
	BookID   int64 `json:"bookId"`
}

// RentalDetail is a rental with its books resolved.
type RentalDetail struct {
	Rental
	Books []Book `json:"books"`
}

type RentalPatch struct {
	UserDetails Field[string] `json:"userDetails"`
	RentalDate  Field[Date]   `json:"rentalDate"`
	ReturnDate  Field[Date]   `json:"returnDate"`
}

// RentalFilter narrows a rental listing. Zero values mean no constraint;
// From and To are inclusive bounds on RentalDate.
type RentalFilter struct {
	User     string
	From     *Date
	To       *Date
	OpenOnly bool
}
