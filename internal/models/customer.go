package models

// LoyaltyTier is derived from the lifetime value of delivered orders.
type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "bronze"
	TierSilver   LoyaltyTier = "silver"
	TierGold     LoyaltyTier = "gold"
	TierPlatinum LoyaltyTier = "platinum"
)

// LoyaltyTierFor maps total spend (INR) to a tier.
func LoyaltyTierFor(totalSpent float64) LoyaltyTier {
	switch {
	case totalSpent >= 50000:
		return TierPlatinum
	case totalSpent >= 20000:
		return TierGold
	case totalSpent >= 5000:
		return TierSilver
	default:
		return TierBronze
	}
}

type CustomerStats struct {
	OrderCount     int64     `bson:"orderCount" json:"orderCount"`
	DeliveredCount int64     `bson:"deliveredCount" json:"deliveredCount"`
	TotalSpent     float64   `bson:"totalSpent" json:"totalSpent"`
	LastOrderAt    Timestamp `bson:"lastOrderAt,omitempty" json:"lastOrderAt"`
}

// Customer is keyed by a generated id; phone is a unique secondary key.
type Customer struct {
	ID             string        `bson:"_id" json:"customerId"`
	Phone          string        `bson:"phone" json:"phone"`
	Name           string        `bson:"name" json:"name"`
	Email          string        `bson:"email,omitempty" json:"email,omitempty"`
	DefaultAddress *Address      `bson:"defaultAddress,omitempty" json:"defaultAddress,omitempty"`
	Addresses      []Address     `bson:"addresses" json:"addresses"`
	LoyaltyTier    LoyaltyTier   `bson:"loyaltyTier" json:"loyaltyTier"`
	Stats          CustomerStats `bson:"stats" json:"stats"`
	Version        int64         `bson:"version" json:"-"`
	CreatedAt      Timestamp     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      Timestamp     `bson:"updatedAt" json:"updatedAt"`
}
