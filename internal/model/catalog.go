package model

// Catalog is reference data used to populate the catalog filters.
type Catalog struct {
	Base
	Type   string `json:"type" gorm:"not null;index"`
	Label  string `json:"label" gorm:"not null"`
	Value  string `json:"value" gorm:"not null;uniqueIndex"`
	Order  int    `json:"order" gorm:"column:sort_order;not null;default:0"`
	Active bool   `json:"active" gorm:"not null;default:true"`
}
