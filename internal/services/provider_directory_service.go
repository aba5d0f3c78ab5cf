package services

import (
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/wizard"
)

const directoryCacheTTL = 1 * time.Hour

// ProviderDirectoryService serves the provider type catalog
type ProviderDirectoryService struct {
	cache common.Cache
}

func NewProviderDirectoryService(cache common.Cache) *ProviderDirectoryService {
	return &ProviderDirectoryService{cache: cache}
}

// List returns every provider type in catalog order
func (s *ProviderDirectoryService) List() []wizard.ProviderTypeDescriptor {
	val, _, err := s.cache.GetOrLoad(constants.CachePrefixProviderTypes, directoryCacheTTL, func() (any, error) {
		return wizard.ProviderTypes(), nil
	})
	if err != nil {
		logging.Warn("Provider type cache load failed", "error", err.Error())
		return wizard.ProviderTypes()
	}

	var types []wizard.ProviderTypeDescriptor
	if !decodeCached(val, &types) {
		return wizard.ProviderTypes()
	}
	return types
}

// Lookup finds a provider type by ID
func (s *ProviderDirectoryService) Lookup(id string) (wizard.ProviderTypeDescriptor, bool) {
	for _, d := range s.List() {
		if d.ID == id {
			return d, true
		}
	}
	return wizard.ProviderTypeDescriptor{}, false
}
