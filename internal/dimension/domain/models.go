package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Provider is a shared reference-data row resolved by canonical name.
// The technology tag set is many-valued and deduplicated.
type Provider struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_providers_name"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Technologies []ProviderTechnology `json:"technologies,omitempty" gorm:"foreignKey:ProviderID"`
}

func (Provider) TableName() string { return "providers" }

// ProviderTechnology is one tag in a provider's technology set.
type ProviderTechnology struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	ProviderID snowflake.ID `json:"provider_id" gorm:"not null;uniqueIndex:ux_provider_technologies,priority:1"`
	Technology string       `json:"technology" gorm:"type:text;not null;uniqueIndex:ux_provider_technologies,priority:2"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProviderTechnology) TableName() string { return "provider_technologies" }

// State is keyed by its two-letter code.
type State struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_states_code"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (State) TableName() string { return "states" }

// City is keyed by name alone. Same-named cities in different states
// share one row; state disambiguation is not part of resolution.
type City struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_cities_name"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (City) TableName() string { return "cities" }

// ZipCode is keyed by its normalized 5-digit code.
type ZipCode struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_zip_codes_code"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ZipCode) TableName() string { return "zip_codes" }
