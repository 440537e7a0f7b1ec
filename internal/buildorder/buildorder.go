// Package buildorder reads and writes build order YAML files in the layout
// the simulator backend uses, so the dashboard can work on local files.
package buildorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"bodash/internal/model"
)

const queueSuffix = "_queue"

type fileDoc struct {
	Name           *string              `yaml:"name"`
	Description    string               `yaml:"description"`
	MapName        string               `yaml:"map_name"`
	Map            model.MapConfig      `yaml:"map"`
	CommanderQueue []string             `yaml:"commander_queue"`
	Rest           map[string]yaml.Node `yaml:",inline"`
}

// savedMap is the map block as written to disk. Reclaim metal is derived by
// the backend and not persisted.
type savedMap struct {
	AvgWind      float64 `yaml:"avg_wind"`
	WindVariance float64 `yaml:"wind_variance"`
	MexValue     float64 `yaml:"mex_value"`
	MexSpots     int     `yaml:"mex_spots"`
	HasGeo       bool    `yaml:"has_geo"`
	TidalValue   float64 `yaml:"tidal_value"`
}

// Parse decodes a build order. stem names the order when the document has no
// name of its own.
func Parse(data []byte, stem string) (model.BuildOrder, error) {
	doc := fileDoc{Map: model.DefaultMapConfig()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.BuildOrder{}, fmt.Errorf("parse build order: %w", err)
	}
	bo := model.BuildOrder{
		Name:              stem,
		Description:       doc.Description,
		MapName:           doc.MapName,
		MapConfig:         doc.Map,
		CommanderQueue:    doc.CommanderQueue,
		FactoryQueues:     map[string][]string{},
		ConstructorQueues: map[string][]string{},
	}
	if doc.Name != nil {
		bo.Name = *doc.Name
	}
	if bo.CommanderQueue == nil {
		bo.CommanderQueue = []string{}
	}
	for key, node := range doc.Rest {
		if !strings.HasSuffix(key, queueSuffix) {
			continue
		}
		var target map[string][]string
		switch {
		case strings.HasPrefix(key, "factory_"):
			target = bo.FactoryQueues
		case strings.HasPrefix(key, "con_"):
			target = bo.ConstructorQueues
		default:
			continue
		}
		var units []string
		if err := node.Decode(&units); err != nil {
			return model.BuildOrder{}, fmt.Errorf("parse build order: %s: %w", key, err)
		}
		if units == nil {
			units = []string{}
		}
		target[strings.TrimSuffix(key, queueSuffix)] = units
	}
	return bo, nil
}

// Load reads a build order file.
func Load(path string) (model.BuildOrder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BuildOrder{}, err
	}
	return Parse(data, Stem(path))
}

// Marshal encodes bo with keys in a stable order: header, map, commander
// queue, then factory and constructor queues sorted by id.
func Marshal(bo model.BuildOrder) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v any) error {
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &val)
		return nil
	}

	if err := add("name", bo.Name); err != nil {
		return nil, err
	}
	if err := add("description", bo.Description); err != nil {
		return nil, err
	}
	if bo.MapName != "" {
		if err := add("map_name", bo.MapName); err != nil {
			return nil, err
		}
	}
	mc := bo.MapConfig
	if err := add("map", savedMap{
		AvgWind:      mc.AvgWind,
		WindVariance: mc.WindVariance,
		MexValue:     mc.MexValue,
		MexSpots:     mc.MexSpots,
		HasGeo:       mc.HasGeo,
		TidalValue:   mc.TidalValue,
	}); err != nil {
		return nil, err
	}
	cmd := bo.CommanderQueue
	if cmd == nil {
		cmd = []string{}
	}
	if err := add("commander_queue", cmd); err != nil {
		return nil, err
	}
	for _, lanes := range []map[string][]string{bo.FactoryQueues, bo.ConstructorQueues} {
		ids := make([]string, 0, len(lanes))
		for id := range lanes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			q := lanes[id]
			if q == nil {
				q = []string{}
			}
			if err := add(id+queueSuffix, q); err != nil {
				return nil, err
			}
		}
	}
	return yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}

// Save writes bo to path, creating parent directories as needed.
func Save(path string, bo model.BuildOrder) error {
	data, err := Marshal(bo)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the queues only, for in-game widgets that replay them.
func ExportJSON(path string, bo model.BuildOrder) error {
	out := map[string]any{
		"name":            bo.Name,
		"commander_queue": bo.CommanderQueue,
	}
	for id, q := range bo.FactoryQueues {
		out[id+queueSuffix] = q
	}
	for id, q := range bo.ConstructorQueues {
		out[id+queueSuffix] = q
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List returns the YAML build orders in dir, sorted by file name.
func List(dir string) ([]model.BuildOrderFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []model.BuildOrderFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		out = append(out, model.BuildOrderFile{Filename: e.Name(), Stem: Stem(e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}
