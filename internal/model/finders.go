package model

import (
	"gorm.io/gorm"
)

// FindUserByEmail looks a user up by email address
func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if result := db.Where("email = ?", email).First(&user); result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindUserByResetToken looks a user up by an outstanding reset token
func FindUserByResetToken(db *gorm.DB, token string) (*User, error) {
	var user User
	if result := db.Where("reset_token = ?", token).First(&user); result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// CountIndicatorChildren counts the direct children of an indicator
func CountIndicatorChildren(db *gorm.DB, indicatorID uint) (int64, error) {
	var count int64
	result := db.Model(&PerformanceIndicator{}).Where("parent_id = ?", indicatorID).Count(&count)
	return count, result.Error
}

// CountIndicatorProjectLinks counts the project links of an indicator
func CountIndicatorProjectLinks(db *gorm.DB, indicatorID uint) (int64, error) {
	var count int64
	result := db.Model(&ProjectIndicator{}).Where("indicator_id = ?", indicatorID).Count(&count)
	return count, result.Error
}

// LoadRoleWithPermissions loads a role with its permission set eagerly
// resolved
func LoadRoleWithPermissions(db *gorm.DB, roleID uint) (*Role, error) {
	var role Role
	if result := db.Preload("Permissions").First(&role, roleID); result.Error != nil {
		return nil, result.Error
	}
	return &role, nil
}
