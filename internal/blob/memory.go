package blob

import (
	memorystore "github.com/tdfffffffff/bto-housing-management-system/internal/infra/blob/memory"
)

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }
