// Package certs provisions the TLS certificates a benchmark run needs by
// shelling out to the cluster certificate-authority tool and discovering the
// resulting file paths. The CA logic itself lives entirely in that tool.
package certs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// CertAndKey holds the paths of a matching certificate and private key pair.
type CertAndKey struct {
	CertPath string
	KeyPath  string
}

// Certificates collects every pair generated for a cluster.
type Certificates struct {
	Cluster CertAndKey   // the certificate authority pair
	Control CertAndKey   // the control service pair
	User    CertAndKey   // the API user pair
	Nodes   []CertAndKey // one pair per node
}

// Options configure certificate generation.
type Options struct {
	Dir             string // working directory for the CA tool (required)
	ControlHostname string // hostname baked into the control certificate
	ClusterName     string // defaults to "benchmark-cluster"
	User            string // API user name; defaults to "benchmark"
	NumNodes        int
	Tool            string // CA command; defaults to "flocker-ca"
}

func (o *Options) normalize() {
	if o.ClusterName == "" {
		o.ClusterName = "benchmark-cluster"
	}
	if o.User == "" {
		o.User = "benchmark"
	}
	if o.Tool == "" {
		o.Tool = "flocker-ca"
	}
}

// Generate runs the CA tool in the given directory and returns the paths of
// the certificates it produced. A file lock on the directory keeps two runs
// sharing a certs dir from interleaving the tool's invocations.
func Generate(ctx context.Context, opt Options) (*Certificates, error) {
	opt.normalize()
	if opt.Dir == "" {
		return nil, fmt.Errorf("certs: working directory is required")
	}
	if opt.ControlHostname == "" {
		return nil, fmt.Errorf("certs: control hostname is required")
	}

	lock := flock.New(filepath.Join(opt.Dir, ".rateforge-ca.lock"))
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("certs: lock %s: %w", opt.Dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("certs: could not lock %s", opt.Dir)
	}
	defer lock.Unlock()

	run := func(args ...string) error {
		cmd := exec.CommandContext(ctx, opt.Tool, args...)
		cmd.Dir = opt.Dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("certs: %s %s: %w: %s", opt.Tool, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return nil
	}

	if err := run("initialize", opt.ClusterName); err != nil {
		return nil, err
	}
	if err := run("create-control-certificate", opt.ControlHostname); err != nil {
		return nil, err
	}
	if err := run("create-api-certificate", opt.User); err != nil {
		return nil, err
	}
	for i := 0; i < opt.NumNodes; i++ {
		if err := run("create-node-certificate"); err != nil {
			return nil, err
		}
	}

	return FromDirectory(opt.Dir, opt.User)
}

// FromDirectory discovers a previously generated certificate layout:
// cluster.crt/key, one control-*.crt/key pair, <user>.crt/key, and one
// UUID-named pair per node.
func FromDirectory(dir, user string) (*Certificates, error) {
	if user == "" {
		user = "benchmark"
	}

	cluster, err := pairAt(filepath.Join(dir, "cluster.crt"), filepath.Join(dir, "cluster.key"))
	if err != nil {
		return nil, err
	}

	controlCerts, err := filepath.Glob(filepath.Join(dir, "control-*.crt"))
	if err != nil {
		return nil, err
	}
	if len(controlCerts) == 0 {
		return nil, fmt.Errorf("certs: no control certificate in %s", dir)
	}
	control, err := pairAt(controlCerts[0], keyFor(controlCerts[0]))
	if err != nil {
		return nil, err
	}

	userPair, err := pairAt(filepath.Join(dir, user+".crt"), filepath.Join(dir, user+".key"))
	if err != nil {
		return nil, err
	}

	// Node certificates are named by the node's UUID.
	nodeCerts, err := filepath.Glob(filepath.Join(dir, "????????-????-*.crt"))
	if err != nil {
		return nil, err
	}
	nodes := make([]CertAndKey, 0, len(nodeCerts))
	for _, crt := range nodeCerts {
		pair, err := pairAt(crt, keyFor(crt))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, pair)
	}

	return &Certificates{
		Cluster: cluster,
		Control: control,
		User:    userPair,
		Nodes:   nodes,
	}, nil
}

func keyFor(certPath string) string {
	return strings.TrimSuffix(certPath, ".crt") + ".key"
}

func pairAt(certPath, keyPath string) (CertAndKey, error) {
	for _, p := range []string{certPath, keyPath} {
		if _, err := os.Stat(p); err != nil {
			return CertAndKey{}, fmt.Errorf("certs: %s: %w", p, err)
		}
	}
	return CertAndKey{CertPath: certPath, KeyPath: keyPath}, nil
}
