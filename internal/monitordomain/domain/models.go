package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Domain is a remote ISP-monitoring agent that submits usage reports.
// Inactive domains keep their history but are excluded from rankings
// and comparisons.
type Domain struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_domains_name"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Domain) TableName() string { return "domains" }
