package models

type CombinationItem struct {
	SKU         string `bson:"sku" json:"sku" binding:"required"`
	Quantity    int    `bson:"quantity" json:"quantity" binding:"required,gt=0"`
	ProductName string `bson:"productName,omitempty" json:"productName,omitempty"`
}

// Dimensions are in centimetres.
type Dimensions struct {
	Length  float64 `bson:"l" json:"l" binding:"gt=0"`
	Breadth float64 `bson:"b" json:"b" binding:"gt=0"`
	Height  float64 `bson:"h" json:"h" binding:"gt=0"`
}

// VerifiedCombination remembers the packed weight (kg) and dimensions of a
// specific multiset of SKUs so identical orders can be shipped without
// re-verification. It is never hard deleted.
type VerifiedCombination struct {
	Hash        string            `bson:"_id" json:"combinationHash"`
	Items       []CombinationItem `bson:"items" json:"items"`
	Weight      float64           `bson:"weight" json:"weight"`
	Dimensions  Dimensions        `bson:"dimensions" json:"dimensions"`
	ProductSKUs []string          `bson:"productSkus" json:"productSkus"`
	VerifiedBy  string            `bson:"verifiedBy" json:"verifiedBy"`
	VerifiedAt  Timestamp         `bson:"verifiedAt" json:"verifiedAt"`
	UpdatedBy   string            `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt   Timestamp         `bson:"updatedAt,omitempty" json:"updatedAt"`
	UsageCount  int64             `bson:"usageCount" json:"usageCount"`
	LastUsedAt  Timestamp         `bson:"lastUsedAt,omitempty" json:"lastUsedAt"`
	IsActive    bool              `bson:"isActive" json:"isActive"`
	Notes       string            `bson:"notes,omitempty" json:"notes,omitempty"`
}
