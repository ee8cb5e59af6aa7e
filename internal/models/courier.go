package models

const CourierDelhivery = "delhivery"

// CourierIntegration holds per-courier credentials managed from the panel.
// An active record overrides the environment defaults.
type CourierIntegration struct {
	Courier        string    `bson:"_id" json:"courier"`
	APIToken       string    `bson:"apiToken" json:"-"`
	PickupLocation string    `bson:"pickupLocation" json:"pickupLocation"`
	BaseURL        string    `bson:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	IsActive       bool      `bson:"isActive" json:"isActive"`
	UpdatedBy      string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt      Timestamp `bson:"updatedAt" json:"updatedAt"`
}

// HasToken lets the API report whether a token is configured without
// exposing it.
func (c CourierIntegration) HasToken() bool {
	return c.APIToken != ""
}
