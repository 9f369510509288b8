package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"gorm.io/gorm"
)

type ShopService struct {
	DB *gorm.DB
}

func NewShopService(db *gorm.DB) *ShopService {
	return &ShopService{DB: db}
}

type CreateShopInput struct {
	Name string `json:"name" validate:"required"`
}

// AddOwnerInput names the new owner by id or, when the id is absent, by email.
type AddOwnerInput struct {
	UserID Number `json:"userId"`
	Email  string `json:"email"`
}

func ownsShop(tx *gorm.DB, userID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.ShopOwner{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ShopService) CreateShop(ctx context.Context, userID uint, in CreateShopInput) (*models.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	if fields := validateStruct(in); fields != nil {
		return nil, apperr.Validation("Missing required fields!", fields)
	}

	hasShop, err := ownsShop(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if hasShop {
		return nil, apperr.Conflict("Unable to create shop")
	}

	shop := models.Shop{
		Name:   in.Name,
		Owners: []models.ShopOwner{{UserID: userID}},
	}
	err = RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(&shop).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("role", models.RoleOwner).Error
	})
	if err != nil {
		return nil, dbError(err, "", "Unable to create shop")
	}
	return &shop, nil
}

func (s *ShopService) resolveUser(ctx context.Context, in AddOwnerInput) (*models.User, error) {
	db := s.DB.WithContext(ctx)
	var user models.User
	var err error

	switch {
	case in.UserID.Set:
		id, ok := in.UserID.ID()
		if !ok {
			return nil, apperr.Validation("Invalid user id", apperr.Fields{"userId": "Invalid user id"})
		}
		err = db.First(&user, id).Error
	case strings.TrimSpace(in.Email) != "":
		err = db.Where("email = ?", normalizeEmail(in.Email)).First(&user).Error
	default:
		return nil, apperr.Validation("User id or email is required!", apperr.Fields{
			"userId": "User id or email is required!",
		})
	}

	if err != nil {
		return nil, dbError(err, "User does not exist!", "")
	}
	return &user, nil
}

func (s *ShopService) AddOwner(ctx context.Context, requesterID uint, in AddOwnerInput) (*models.Shop, error) {
	target, err := s.resolveUser(ctx, in)
	if err != nil {
		return nil, err
	}

	alreadyOwner, err := ownsShop(s.DB.WithContext(ctx), target.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if alreadyOwner {
		return nil, apperr.Conflict("User already owns a shop")
	}

	shop, err := s.FindByOwner(ctx, requesterID)
	if err != nil {
		if apperr.StatusOf(err) == http.StatusNotFound {
			return nil, apperr.Unauthorized("Unauthorized user!")
		}
		return nil, err
	}

	err = RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		owner := models.ShopOwner{ShopID: shop.ID, UserID: target.ID}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		shop.Owners = append(shop.Owners, owner)
		return tx.Model(&models.User{}).Where("id = ?", target.ID).Update("role", models.RoleOwner).Error
	})
	if err != nil {
		return nil, dbError(err, "", "User already owns a shop")
	}
	return shop, nil
}

// FindByOwner returns the shop userID owns, with its owner links loaded.
func (s *ShopService) FindByOwner(ctx context.Context, userID uint) (*models.Shop, error) {
	var shop models.Shop
	err := s.DB.WithContext(ctx).
		Preload("Owners").
		Joins("JOIN shop_owners ON shop_owners.shop_id = shops.id").
		Where("shop_owners.user_id = ?", userID).
		First(&shop).Error
	if err != nil {
		return nil, dbError(err, "Shop not found for this user", "")
	}
	return &shop, nil
}

// Authorize loads shopID and checks that userID is one of its owners.
func (s *ShopService) Authorize(ctx context.Context, shopID, userID uint) (*models.Shop, error) {
	var shop models.Shop
	if err := s.DB.WithContext(ctx).Preload("Owners").First(&shop, shopID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Shop not found!")
		}
		return nil, apperr.Internal(err)
	}

	if !shop.HasOwner(userID) {
		return nil, apperr.Forbidden("Forbidden")
	}
	return &shop, nil
}
