package models

import "time"

const DefaultVillage = "N/A"

type Order struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	ShopID      uint        `json:"shopId" gorm:"index;not null"`
	Name        string      `json:"name" gorm:"size:120;not null"`
	Contact     string      `json:"contact" gorm:"size:64;not null"`
	Village     string      `json:"village" gorm:"size:120"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OrderItem keeps name, price and category as they were when the order was placed.
type OrderItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	OrderID     uint    `json:"-" gorm:"index;not null"`
	ProductID   uint    `json:"product" gorm:"index;not null"`
	ProductName string  `json:"productName" gorm:"size:255;not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`
	Price       float64 `json:"price" gorm:"not null"`
	Category    string  `json:"category" gorm:"size:120;not null"`
}
