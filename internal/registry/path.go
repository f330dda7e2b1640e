package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Path is a znode path kept as its components.
type Path struct {
	Cmp []string
}

func Root() Path {
	return Path{Cmp: []string{}}
}

// ParsePath splits an absolute znode path, ignoring empty components.
func ParsePath(s string) Path {
	p := Root()
	for _, part := range strings.Split(s, "/") {
		if part != "" {
			p.Cmp = append(p.Cmp, part)
		}
	}
	return p
}

type PathBuilder struct {
	Cmp []string
}

func (t PathBuilder) Base(p Path) PathBuilder {
	t.Cmp = slices.Clone(p.Cmp)
	return t
}

func (t PathBuilder) CD(s string) PathBuilder {
	t.Cmp = append(slices.Clone(t.Cmp), s)
	return t
}

func (t PathBuilder) CDBack() PathBuilder {
	if len(t.Cmp) > 0 {
		t.Cmp = slices.Clone(t.Cmp[:len(t.Cmp)-1])
	}
	return t
}

// GetDir renders the path with a trailing slash, the form zookeeper expects as
// the prefix of a sequential node.
func (t PathBuilder) GetDir() string {
	if len(t.Cmp) == 0 {
		return "/"
	}
	return fmt.Sprintf("/%s/", strings.Join(t.Cmp, "/"))
}

func (t PathBuilder) GetFile() string {
	return "/" + strings.Join(t.Cmp, "/")
}

func (t PathBuilder) FileName() string {
	if len(t.Cmp) != 0 {
		return t.Cmp[len(t.Cmp)-1]
	}
	return ""
}

func (t PathBuilder) Create() Path {
	return Path(t)
}

// Prefixes lists every ancestor of the path and the path itself, shortest first.
func (t PathBuilder) Prefixes() []string {
	out := make([]string, 0, len(t.Cmp))
	for i := range t.Cmp {
		out = append(out, "/"+strings.Join(t.Cmp[:i+1], "/"))
	}
	return out
}
