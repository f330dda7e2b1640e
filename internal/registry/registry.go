package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samuel/go-zookeeper/zk"
)

// Instance is the record stored in an instance znode.
type Instance struct {
	ID      string    `json:"id"`
	Addr    string    `json:"addr"`
	Started time.Time `json:"started"`
}

// Registry announces a running echo server in zookeeper. The node is ephemeral,
// so it also disappears when the session dies with the process.
type Registry struct {
	conn *zk.Conn
	base Path
	node string
}

// Connect opens a session; it does not wait for the session to be established.
func Connect(servers []string, basePath string, sessionTimeout time.Duration) (*Registry, error) {
	if len(servers) == 0 {
		return nil, errors.New("no zookeeper servers configured")
	}
	conn, _, err := zk.Connect(servers, sessionTimeout, zk.WithLogger(log.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	return &Registry{conn: conn, base: ParsePath(basePath)}, nil
}

func (t *Registry) ensurePathExists() error {
	for _, p := range (PathBuilder{}).Base(t.base).Prefixes() {
		exists, _, err := t.conn.Exists(p)
		if err != nil {
			return fmt.Errorf("error checking path %s: %w", p, err)
		}
		if exists {
			continue
		}
		if _, err := t.conn.Create(p, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
			return fmt.Errorf("error creating path %s: %w", p, err)
		}
	}
	return nil
}

// Register writes inst under the base path as a protected ephemeral sequential
// node and returns the node's path.
func (t *Registry) Register(inst Instance) (string, error) {
	if err := t.ensurePathExists(); err != nil {
		return "", fmt.Errorf("failed to register: %w", err)
	}
	data, err := json.Marshal(inst)
	if err != nil {
		return "", fmt.Errorf("failed to encode instance: %w", err)
	}
	prefix := (PathBuilder{}).Base(t.base).GetDir() + "instance-"
	node, err := t.conn.CreateProtectedEphemeralSequential(prefix, data, zk.WorldACL(zk.PermAll))
	if err != nil {
		return "", fmt.Errorf("failed to register: %w", err)
	}
	t.node = node
	log.Info("registry: registered", "node", node, "addr", inst.Addr)
	return node, nil
}

// Deregister removes the node written by Register, if any.
func (t *Registry) Deregister() error {
	if t.node == "" {
		return nil
	}
	node := t.node
	t.node = ""
	if err := t.conn.Delete(node, -1); err != nil && !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to deregister %s: %w", node, err)
	}
	log.Info("registry: deregistered", "node", node)
	return nil
}

func (t *Registry) Close() {
	t.conn.Close()
}
