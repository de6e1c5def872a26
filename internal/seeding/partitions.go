// Package seeding closes coverage gaps by generating the shortfall for each
// criterion, persisting whole partitions and re-running the audit.
package seeding

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/psr-academy/internal/standards"
)

// Route says where questions for a tag are written and which topic they reference.
type Route struct {
	Tag       string `yaml:"tag"`
	Partition string `yaml:"partition"`
	Topic     string `yaml:"topic"`
}

// PartitionMap is the editable tag → partition table with a catch-all default.
type PartitionMap struct {
	Default Route   `yaml:"default"`
	Routes  []Route `yaml:"routes"`
}

// DefaultPartitionMap routes everything to the general partition.
func DefaultPartitionMap() *PartitionMap {
	return &PartitionMap{Default: Route{Partition: "general", Topic: "general"}}
}

// LoadPartitionMap reads the routing table from YAML. A missing file yields
// DefaultPartitionMap.
func LoadPartitionMap(path string) (*PartitionMap, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("partition map not found, using catch-all only", "path", path)
		return DefaultPartitionMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading partition map: %w", err)
	}
	return ParsePartitionMap(data)
}

// ParsePartitionMap decodes and validates a routing table.
func ParsePartitionMap(data []byte) (*PartitionMap, error) {
	var m PartitionMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing partition map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the default is declared and every route is usable.
func (m *PartitionMap) Validate() error {
	if err := checkPartition(m.Default.Partition); err != nil {
		return fmt.Errorf("default route: %w", err)
	}
	seen := make(map[string]bool, len(m.Routes))
	for i, r := range m.Routes {
		if r.Tag == "" {
			return fmt.Errorf("route %d: tag is required", i)
		}
		if seen[r.Tag] {
			return fmt.Errorf("route %d: duplicate tag %q", i, r.Tag)
		}
		seen[r.Tag] = true
		if err := checkPartition(r.Partition); err != nil {
			return fmt.Errorf("route %q: %w", r.Tag, err)
		}
	}
	return nil
}

func checkPartition(name string) error {
	if name == "" {
		return errors.New("partition is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid partition name %q", name)
	}
	return nil
}

// For returns the first route, in table order, whose tag the criterion
// carries, or the default.
func (m *PartitionMap) For(c standards.Criterion) Route {
	tags := make(map[string]bool, len(c.Tags))
	for _, t := range c.Tags {
		tags[t] = true
	}
	for _, r := range m.Routes {
		if tags[r.Tag] {
			return m.withDefaults(r)
		}
	}
	return m.Default
}

func (m *PartitionMap) withDefaults(r Route) Route {
	if r.Topic == "" {
		r.Topic = m.Default.Topic
	}
	return r
}

// TopicFor adapts the table for the generator.
func (m *PartitionMap) TopicFor(c standards.Criterion) string {
	return m.For(c).Topic
}
