package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	dimensiondomain "github.com/netwatch/ispmetrics/internal/dimension/domain"
	pkgdb "github.com/netwatch/ispmetrics/pkg/db"
	"gorm.io/gorm"
)

type resolver struct {
	genID *snowflake.Node
}

func Provide(genID *snowflake.Node) dimensiondomain.Resolver {
	return &resolver{genID: genID}
}

func (r *resolver) FindOrCreateProvider(ctx context.Context, db *gorm.DB, name, technology string) (*dimensiondomain.Provider, error) {
	provider, err := r.findProviderByName(ctx, db, name)
	if err != nil {
		return nil, err
	}

	if provider == nil {
		now := time.Now().UTC()
		candidate := &dimensiondomain.Provider{
			ID:        r.genID.Generate(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		provider, err = r.reconcileProviderCreate(ctx, db, candidate)
		if err != nil {
			return nil, err
		}
	}

	if technology != "" {
		if err := r.mergeProviderTechnology(ctx, db, provider.ID, technology); err != nil {
			return nil, err
		}
	}

	return provider, nil
}

// reconcileProviderCreate inserts candidate and, when a concurrent
// creator wins the unique-constraint race, returns the winner's row.
func (r *resolver) reconcileProviderCreate(ctx context.Context, db *gorm.DB, candidate *dimensiondomain.Provider) (*dimensiondomain.Provider, error) {
	createErr := db.WithContext(ctx).Create(candidate).Error
	if createErr == nil {
		return candidate, nil
	}
	if !pkgdb.IsDuplicateKeyErr(createErr) {
		return nil, createErr
	}

	existing, err := r.findProviderByName(ctx, db, candidate.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("provider %q absent after duplicate-key conflict: %w", candidate.Name, createErr)
	}
	return existing, nil
}

func (r *resolver) findProviderByName(ctx context.Context, db *gorm.DB, name string) (*dimensiondomain.Provider, error) {
	var provider dimensiondomain.Provider
	err := db.WithContext(ctx).
		Where("name = ?", name).
		First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

// mergeProviderTechnology unions one tag into the provider's set. A
// duplicate-key conflict means the tag is already present (possibly
// inserted by a concurrent worker) and is not an error.
func (r *resolver) mergeProviderTechnology(ctx context.Context, db *gorm.DB, providerID snowflake.ID, technology string) error {
	tag := &dimensiondomain.ProviderTechnology{
		ID:         r.genID.Generate(),
		ProviderID: providerID,
		Technology: technology,
		CreatedAt:  time.Now().UTC(),
	}

	var count int64
	if err := db.WithContext(ctx).
		Model(&dimensiondomain.ProviderTechnology{}).
		Where("provider_id = ? AND technology = ?", providerID, technology).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := db.WithContext(ctx).Create(tag).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
		return err
	}
	return nil
}

func (r *resolver) FindOrCreateState(ctx context.Context, db *gorm.DB, code, name string) (*dimensiondomain.State, error) {
	state, err := r.findStateByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	now := time.Now().UTC()
	candidate := &dimensiondomain.State{
		ID:        r.genID.Generate(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	createErr := db.WithContext(ctx).Create(candidate).Error
	if createErr == nil {
		return candidate, nil
	}
	if !pkgdb.IsDuplicateKeyErr(createErr) {
		return nil, createErr
	}

	state, err = r.findStateByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("state %q absent after duplicate-key conflict: %w", code, createErr)
	}
	return state, nil
}

func (r *resolver) findStateByCode(ctx context.Context, db *gorm.DB, code string) (*dimensiondomain.State, error) {
	var state dimensiondomain.State
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *resolver) FindOrCreateCity(ctx context.Context, db *gorm.DB, name string) (*dimensiondomain.City, error) {
	city, err := r.findCityByName(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if city != nil {
		return city, nil
	}

	now := time.Now().UTC()
	candidate := &dimensiondomain.City{
		ID:        r.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	createErr := db.WithContext(ctx).Create(candidate).Error
	if createErr == nil {
		return candidate, nil
	}
	if !pkgdb.IsDuplicateKeyErr(createErr) {
		return nil, createErr
	}

	city, err = r.findCityByName(ctx, db, name)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, fmt.Errorf("city %q absent after duplicate-key conflict: %w", name, createErr)
	}
	return city, nil
}

func (r *resolver) findCityByName(ctx context.Context, db *gorm.DB, name string) (*dimensiondomain.City, error) {
	var city dimensiondomain.City
	err := db.WithContext(ctx).
		Where("name = ?", name).
		First(&city).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *resolver) FindOrCreateZipCode(ctx context.Context, db *gorm.DB, code string) (*dimensiondomain.ZipCode, error) {
	zip, err := r.findZipByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	if zip != nil {
		return zip, nil
	}

	now := time.Now().UTC()
	candidate := &dimensiondomain.ZipCode{
		ID:        r.genID.Generate(),
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}

	createErr := db.WithContext(ctx).Create(candidate).Error
	if createErr == nil {
		return candidate, nil
	}
	if !pkgdb.IsDuplicateKeyErr(createErr) {
		return nil, createErr
	}

	zip, err = r.findZipByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	if zip == nil {
		return nil, fmt.Errorf("zip code %q absent after duplicate-key conflict: %w", code, createErr)
	}
	return zip, nil
}

func (r *resolver) findZipByCode(ctx context.Context, db *gorm.DB, code string) (*dimensiondomain.ZipCode, error) {
	var zip dimensiondomain.ZipCode
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&zip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zip, nil
}
