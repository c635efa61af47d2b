package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ShippingInfo struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

func (s ShippingInfo) Empty() bool {
	return s == ShippingInfo{}
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// UpdateShipping overwrites only the non-empty fields of info.
func (r *GormRepo) UpdateShipping(ctx context.Context, userID uint, info ShippingInfo) error {
	updates := map[string]any{}
	set := func(col, v string) {
		if v != "" {
			updates[col] = v
		}
	}
	set("full_name", info.FullName)
	set("phone", info.Phone)
	set("address", info.Address)
	set("city", info.City)
	set("state", info.State)
	set("pincode", info.Pincode)
	if len(updates) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}
