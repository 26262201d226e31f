package assets

import "sort"

// CustomIndex is the index every unrecognized asset type encodes to.
const CustomIndex uint8 = 5

// AssetType is one of the real-world asset classes the rwaasset contract knows about.
type AssetType struct {
	Name  string `json:"name"`
	Index uint8  `json:"index"`
	Label string `json:"label"`
}

// AssetRegistry maps asset type names to their on-chain index and back
type AssetRegistry struct {
	byName  map[string]AssetType
	byIndex map[uint8]AssetType
}

// NewAssetRegistry creates a registry with all supported asset types
func NewAssetRegistry() *AssetRegistry {
	registry := &AssetRegistry{
		byName:  make(map[string]AssetType),
		byIndex: make(map[uint8]AssetType),
	}

	supportedTypes := []AssetType{
		{Name: "RealEstate", Index: 0, Label: "Real Estate"},
		{Name: "Invoice", Index: 1, Label: "Invoice"},
		{Name: "Gold", Index: 2, Label: "Gold"},
		{Name: "Stocks", Index: 3, Label: "Stocks"},
		{Name: "CarbonCredit", Index: 4, Label: "Carbon Credit"},
		{Name: "Custom", Index: CustomIndex, Label: "Custom"},
	}

	for _, assetType := range supportedTypes {
		registry.byName[assetType.Name] = assetType
		registry.byIndex[assetType.Index] = assetType
	}

	return registry
}

// Index returns the on-chain index for name. Unknown names encode as Custom.
func (r *AssetRegistry) Index(name string) uint8 {
	if assetType, exists := r.byName[name]; exists {
		return assetType.Index
	}
	return CustomIndex
}

// Name returns the type name for an on-chain index. Unknown indexes decode as Custom.
func (r *AssetRegistry) Name(index uint8) string {
	if assetType, exists := r.byIndex[index]; exists {
		return assetType.Name
	}
	return r.byIndex[CustomIndex].Name
}

// GetByName returns an asset type by its name
func (r *AssetRegistry) GetByName(name string) (AssetType, bool) {
	assetType, exists := r.byName[name]
	return assetType, exists
}

// IsSupported checks if a type name is known
func (r *AssetRegistry) IsSupported(name string) bool {
	_, exists := r.byName[name]
	return exists
}

// GetAll returns all asset types ordered by index
func (r *AssetRegistry) GetAll() []AssetType {
	all := make([]AssetType, 0, len(r.byIndex))
	for _, assetType := range r.byIndex {
		all = append(all, assetType)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	return all
}
