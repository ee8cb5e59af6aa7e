package models

type Testimonial struct {
	ID               string    `bson:"_id" json:"id"`
	CustomerName     string    `bson:"customerName" json:"customerName"`
	CustomerLocation string    `bson:"customerLocation" json:"customerLocation"`
	YoutubeVideoID   string    `bson:"youtubeVideoId" json:"youtubeVideoId"`
	DisplayOrder     int       `bson:"displayOrder" json:"displayOrder"`
	IsActive         bool      `bson:"isActive" json:"isActive"`
	Title            string    `bson:"title,omitempty" json:"title,omitempty"`
	Description      string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt        Timestamp `bson:"createdAt" json:"createdAt"`
	UpdatedAt        Timestamp `bson:"updatedAt" json:"updatedAt"`
}
