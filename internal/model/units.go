package model

// UnitInfo is the catalog entry for one buildable unit.
type UnitInfo struct {
	Name             string  `json:"name"`
	MetalCost        float64 `json:"metal_cost"`
	EnergyCost       float64 `json:"energy_cost"`
	BuildTime        float64 `json:"build_time"`
	BuildPower       float64 `json:"build_power"`
	MetalProduction  float64 `json:"metal_production"`
	EnergyProduction float64 `json:"energy_production"`
	EnergyUpkeep     float64 `json:"energy_upkeep"`
	Health           float64 `json:"health"`
	Notes            string  `json:"notes"`
}

// Unit pools as named by the backend.
const (
	PoolCommander   = "commander"
	PoolFactory     = "factory"
	PoolConstructor = "constructor"
)

// Catalog is the unit catalog of the active faction.
type Catalog struct {
	Units map[string]UnitInfo `json:"units"`
	Pools map[string][]string `json:"pools"`
}

// Name returns the display name for key, or key itself when the catalog
// has no entry for it.
func (c *Catalog) Name(key string) string {
	if c == nil {
		return key
	}
	if u, ok := c.Units[key]; ok && u.Name != "" {
		return u.Name
	}
	return key
}
