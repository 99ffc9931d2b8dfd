package models

// Listing is one business card extracted from a search-results page.
// All fields are free-form strings exactly as recovered from the page;
// empty means "not found".
type Listing struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	Status       string `json:"status"`
	ClosingTime  string `json:"closingTime"`
	Address      string `json:"address"`
	ReviewScore  string `json:"reviewScore"`
	ReviewsCount string `json:"reviewsCount"`
	Directions   string `json:"directions"`
}

// ListingFields are the JSON field names in column order.
var ListingFields = []string{
	"name", "phone", "website", "status", "closingTime",
	"address", "reviewScore", "reviewsCount", "directions",
}

// ListingHeaders are the human-readable column names, aligned with ListingFields.
var ListingHeaders = []string{
	"Name", "Phone", "Website", "Status", "Closing Time",
	"Address", "Review Score", "Reviews Count", "Directions Link",
}

// Values returns the field values in ListingFields order.
func (l Listing) Values() []string {
	return []string{
		l.Name, l.Phone, l.Website, l.Status, l.ClosingTime,
		l.Address, l.ReviewScore, l.ReviewsCount, l.Directions,
	}
}
