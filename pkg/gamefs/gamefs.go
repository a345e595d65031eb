package gamefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Node is a read-only handle into the game asset tree. Engines resolve asset
// paths through it; nothing in the lifecycle contract writes through a Node.
type Node interface {
	// Name returns the last path component.
	Name() string
	// Path returns the full path, usable with os.Open.
	Path() string
	// Exists reports whether the node refers to an existing file or
	// directory.
	Exists() bool
	// IsDirectory reports whether the node refers to a directory.
	IsDirectory() bool
	// IsReadable reports whether the node's contents can be read.
	IsReadable() bool
	// Child returns the node for a named entry below this node. Calling
	// Child on a non-directory node returns a node that does not exist.
	Child(name string) Node
	// Parent returns the parent node. The parent of the root is the root
	// itself.
	Parent() Node
	// Children lists the entries of a directory node.
	Children() ([]Node, error)
	// Open opens the node's contents for reading.
	Open() (io.ReadCloser, error)
}

// osNode is an OS-backed Node rooted at a directory. The root boundary keeps
// Parent from escaping the game-data tree.
type osNode struct {
	path string
	root string
}

// NewGameDataDir returns the root Node for a game asset directory. It fails
// when the path does not exist or is not a directory.
func NewGameDataDir(path string) (Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game data path: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat game data path: %v", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game data path %s is not a directory", abs)
	}
	return &osNode{path: abs, root: abs}, nil
}

func (n *osNode) Name() string {
	return filepath.Base(n.path)
}

func (n *osNode) Path() string {
	return n.path
}

func (n *osNode) Exists() bool {
	_, err := os.Stat(n.path)
	return err == nil
}

func (n *osNode) IsDirectory() bool {
	info, err := os.Stat(n.path)
	return err == nil && info.IsDir()
}

func (n *osNode) IsReadable() bool {
	if n.IsDirectory() {
		_, err := os.ReadDir(n.path)
		return err == nil
	}
	f, err := os.Open(n.path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func (n *osNode) Child(name string) Node {
	return &osNode{path: filepath.Join(n.path, name), root: n.root}
}

func (n *osNode) Parent() Node {
	if n.path == n.root {
		return n
	}
	return &osNode{path: filepath.Dir(n.path), root: n.root}
}

func (n *osNode) Children() ([]Node, error) {
	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %v", n.path, err)
	}
	nodes := make([]Node, 0, len(entries))
	for _, entry := range entries {
		nodes = append(nodes, &osNode{path: filepath.Join(n.path, entry.Name()), root: n.root})
	}
	return nodes, nil
}

func (n *osNode) Open() (io.ReadCloser, error) {
	return os.Open(n.path)
}
