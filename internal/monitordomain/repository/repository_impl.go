package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	monitordomain "github.com/netwatch/ispmetrics/internal/monitordomain/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() monitordomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *monitordomain.Domain) error {
	return db.WithContext(ctx).Create(d).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*monitordomain.Domain, error) {
	var domain monitordomain.Domain
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain, nil
}
