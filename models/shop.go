package models

import "time"

type Shop struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"size:120;not null"`
	Owners    []ShopOwner `json:"-" gorm:"foreignKey:ShopID"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ShopOwner links a user to the shop they own. The unique index on UserID keeps
// every user to a single shop.
type ShopOwner struct {
	ID        uint      `gorm:"primaryKey"`
	ShopID    uint      `gorm:"index;not null"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (Shop) TableName() string {
	return "shops"
}

func (ShopOwner) TableName() string {
	return "shop_owners"
}

func (s *Shop) OwnerIDs() []uint {
	ids := make([]uint, 0, len(s.Owners))
	for _, owner := range s.Owners {
		ids = append(ids, owner.UserID)
	}
	return ids
}

func (s *Shop) HasOwner(userID uint) bool {
	for _, owner := range s.Owners {
		if owner.UserID == userID {
			return true
		}
	}
	return false
}
