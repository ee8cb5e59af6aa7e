package models

// PostalAddress is the shape shared by shipping addresses and address book
// entries.
type PostalAddress struct {
	Street  string `bson:"street" json:"street" binding:"required"`
	City    string `bson:"city" json:"city" binding:"required"`
	State   string `bson:"state" json:"state" binding:"required"`
	Zip     string `bson:"zip" json:"zip" binding:"required"`
	Country string `bson:"country" json:"country"`
}

// Address is a single entry in a customer's address book.
type Address struct {
	ID            string `bson:"id" json:"id,omitempty"`
	PostalAddress `bson:",inline"`
	IsDefault     bool `bson:"isDefault" json:"isDefault"`
}
