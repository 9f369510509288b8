package models

import "time"

const DefaultCategory = "uncategorized"

type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ShopID       uint      `json:"shopId" gorm:"index;not null"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Img          string    `json:"img"`
	Category     string    `json:"category" gorm:"size:120;index"`
	SprayCount   int       `json:"sprayCount"`
	CostPrice    float64   `json:"costPrice" gorm:"not null"`
	SellingPrice float64   `json:"sellingPrice" gorm:"not null"`
	Tags         []string  `json:"tags" gorm:"serializer:json;type:text"`
	ExpiryDate   time.Time `json:"expiryDate" gorm:"index;not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
