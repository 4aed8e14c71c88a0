package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCluster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cluster.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadClusterTopology(t *testing.T) {
	path := writeCluster(t, `
control_service: control.example.com
nodes:
  - 172.16.255.240
  - 172.16.255.241
`)
	cluster, err := LoadCluster(path)
	if err != nil {
		t.Fatalf("LoadCluster: %v", err)
	}
	if cluster.ControlService != "control.example.com" {
		t.Errorf("control service = %q", cluster.ControlService)
	}
	if len(cluster.Nodes) != 2 || cluster.Nodes[0] != "172.16.255.240" {
		t.Errorf("nodes = %v", cluster.Nodes)
	}
}

func TestLoadClusterRequiresControlService(t *testing.T) {
	path := writeCluster(t, "nodes: [10.0.0.1]\n")
	_, err := LoadCluster(path)
	if err == nil || !strings.Contains(err.Error(), "control_service") {
		t.Fatalf("got %v, want control_service error", err)
	}
}

func TestLoadClusterMissingFile(t *testing.T) {
	if _, err := LoadCluster(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadClusterMalformedYAML(t *testing.T) {
	path := writeCluster(t, "control_service: [unterminated\n")
	if _, err := LoadCluster(path); err == nil {
		t.Fatal("expected parse error")
	}
}
