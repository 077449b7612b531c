package models

import (
	"github.com/vitaguide/backend/internal/domain/identity"
)

// UserProfileModel stores the health-form fields read by recommendations
type UserProfileModel struct {
	BaseModel
	IsFormFilled    bool     `gorm:"not null;default:false"`
	SupplementGoals []string `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (UserProfileModel) TableName() string {
	return "user_profiles"
}

// ToDomain converts the persistence model to a domain UserProfile.
func (m *UserProfileModel) ToDomain() *identity.UserProfile {
	goals := m.SupplementGoals
	if goals == nil {
		goals = []string{}
	}
	return &identity.UserProfile{
		ID:              m.ID,
		IsFormFilled:    m.IsFormFilled,
		SupplementGoals: goals,
	}
}

// UserProfileModelFromDomain creates a persistence model from a domain UserProfile.
func UserProfileModelFromDomain(p *identity.UserProfile) *UserProfileModel {
	m := &UserProfileModel{
		IsFormFilled:    p.IsFormFilled,
		SupplementGoals: p.SupplementGoals,
	}
	m.ID = p.ID
	return m
}
