package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Cluster describes the topology of the cluster under test.
type Cluster struct {
	ControlService string   `yaml:"control_service"`
	Nodes          []string `yaml:"nodes"`
}

// LoadCluster reads a cluster topology YAML file.
func LoadCluster(path string) (*Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster file: %w", err)
	}
	var cluster Cluster
	if err := yaml.Unmarshal(data, &cluster); err != nil {
		return nil, fmt.Errorf("parse cluster file %s: %w", path, err)
	}
	if cluster.ControlService == "" {
		return nil, fmt.Errorf("cluster file %s: control_service is required", path)
	}
	return &cluster, nil
}
