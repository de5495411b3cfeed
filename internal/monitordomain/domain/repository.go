package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, domain *Domain) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Domain, error)
}
