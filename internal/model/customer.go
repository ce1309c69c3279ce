package model

// Customer is customer intake record
type Customer struct {
	ID        int64   `json:"id" bson:"_id"`
	LastName  string  `json:"lastname" bson:"lastname"`
	FirstName string  `json:"firstname" bson:"firstname"`
	Email     string  `json:"email" bson:"email"`
	City      string  `json:"city" bson:"city"`
	Country   string  `json:"country" bson:"country"`
	ImagePath *string `json:"imagePath" bson:"image_path"`
}

// IsNew reports whether customer has not been persisted yet
func (c *Customer) IsNew() bool {
	return c.ID == 0
}
