package models

// ShirtSizes in display order; M is preselected.
var ShirtSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

const DefaultShirtSize = "M"

type ShirtDesign struct {
	ColorCode      string `json:"colorCode"`
	ColorName      string `json:"colorName"`
	Size           string `json:"size"`
	MockupImageURL string `json:"mockupImageUrl"`
	Quantity       int    `json:"quantity,omitempty"`
}

type Product struct {
	ID           string        `json:"_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	BasePrice    float64       `json:"basePrice"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	ShirtDesigns []ShirtDesign `json:"shirtDesigns"`
	ProductType  string        `json:"productType"` // shirt|other
}
