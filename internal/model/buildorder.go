package model

// MapConfig describes the map economy a build order is simulated against.
type MapConfig struct {
	AvgWind      float64 `json:"avg_wind" yaml:"avg_wind"`
	WindVariance float64 `json:"wind_variance" yaml:"wind_variance"`
	MexValue     float64 `json:"mex_value" yaml:"mex_value"`
	MexSpots     int     `json:"mex_spots" yaml:"mex_spots"`
	HasGeo       bool    `json:"has_geo" yaml:"has_geo"`
	TidalValue   float64 `json:"tidal_value" yaml:"tidal_value"`
	ReclaimMetal float64 `json:"reclaim_metal" yaml:"reclaim_metal"`
}

// DefaultMapConfig returns the map settings the backend assumes when none are given.
func DefaultMapConfig() MapConfig {
	return MapConfig{
		AvgWind:      12.0,
		WindVariance: 3.0,
		MexValue:     2.0,
		MexSpots:     6,
	}
}

// BuildOrder is a named set of per-builder production queues.
type BuildOrder struct {
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	MapName           string              `json:"map_name,omitempty"`
	MapConfig         MapConfig           `json:"map_config"`
	CommanderQueue    []string            `json:"commander_queue"`
	FactoryQueues     map[string][]string `json:"factory_queues"`
	ConstructorQueues map[string][]string `json:"constructor_queues"`
}

// Clone returns a deep copy so callers can mutate queues freely.
func (b BuildOrder) Clone() BuildOrder {
	out := b
	out.CommanderQueue = cloneKeys(b.CommanderQueue)
	out.FactoryQueues = cloneLanes(b.FactoryQueues)
	out.ConstructorQueues = cloneLanes(b.ConstructorQueues)
	return out
}

// Empty reports whether no queue holds any unit.
func (b BuildOrder) Empty() bool {
	if len(b.CommanderQueue) > 0 {
		return false
	}
	for _, q := range b.FactoryQueues {
		if len(q) > 0 {
			return false
		}
	}
	for _, q := range b.ConstructorQueues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}

func cloneKeys(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneLanes(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = cloneKeys(v)
	}
	return out
}

// BuildOrderFile is an entry of the backend's saved build order listing.
type BuildOrderFile struct {
	Filename string `json:"filename"`
	Stem     string `json:"stem"`
}
