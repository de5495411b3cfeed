package domain

import (
	"context"

	"gorm.io/gorm"
)

// Resolver performs find-or-create resolution on dimension entities.
//
// Every method is safe under concurrent callers racing on the same
// natural key: at most one row exists afterwards and all callers return
// an entity referencing it. The policy is lookup, then create, then on a
// duplicate-key conflict re-query and return the row the winner created.
type Resolver interface {
	// FindOrCreateProvider resolves a provider by canonical name and, when
	// technology is non-empty, unions it into the provider's tag set.
	FindOrCreateProvider(ctx context.Context, db *gorm.DB, name, technology string) (*Provider, error)
	FindOrCreateState(ctx context.Context, db *gorm.DB, code, name string) (*State, error)
	FindOrCreateCity(ctx context.Context, db *gorm.DB, name string) (*City, error)
	FindOrCreateZipCode(ctx context.Context, db *gorm.DB, code string) (*ZipCode, error)
}
