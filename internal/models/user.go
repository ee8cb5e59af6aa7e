package models

// User is an admin panel account stored in the users collection.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	Role         string    `bson:"role" json:"role"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    Timestamp `bson:"createdAt" json:"createdAt"`
}

const RoleAdmin = "admin"
