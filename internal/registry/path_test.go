package registry_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/ripple-mq/echor/internal/registry"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want registry.Path
	}{
		{name: "root", in: "/", want: registry.Root()},
		{name: "nested", in: "/echor/instances", want: registry.Path{Cmp: []string{"echor", "instances"}}},
		{name: "stray slashes", in: "//echor//instances/", want: registry.Path{Cmp: []string{"echor", "instances"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := registry.ParsePath(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathBuilder_Base(t *testing.T) {
	type args struct {
		p registry.Path
	}
	tests := []struct {
		name string
		args args
		want registry.PathBuilder
	}{
		{
			name: "Valid non root as base",
			args: args{registry.Path{Cmp: []string{"base"}}},
			want: registry.PathBuilder{Cmp: []string{"base"}},
		},
		{
			name: "Valid root as base",
			args: args{registry.Root()},
			want: registry.PathBuilder{Cmp: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := registry.PathBuilder{}
			if got := tr.Base(tt.args.p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PathBuilder.Base() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPathBuilder_Navigation(t *testing.T) {
	base := registry.PathBuilder{}.Base(registry.ParsePath("/echor/instances"))

	child := base.CD("instance-0001")
	if got := child.GetFile(); got != "/echor/instances/instance-0001" {
		t.Errorf("GetFile() = %v", got)
	}
	if got := child.FileName(); got != "instance-0001" {
		t.Errorf("FileName() = %v", got)
	}
	if got := base.GetFile(); got != "/echor/instances" {
		t.Errorf("CD() mutated its receiver: %v", got)
	}
	if got := child.CDBack().GetDir(); got != "/echor/instances/" {
		t.Errorf("CDBack().GetDir() = %v", got)
	}
	if got := (registry.PathBuilder{}).GetDir(); got != "/" {
		t.Errorf("root GetDir() = %v", got)
	}
	if got := (registry.PathBuilder{}).FileName(); got != "" {
		t.Errorf("root FileName() = %v", got)
	}
	if got := child.Create(); !reflect.DeepEqual(got.Cmp, []string{"echor", "instances", "instance-0001"}) {
		t.Errorf("Create() = %v", got)
	}
}

func TestPathBuilder_Prefixes(t *testing.T) {
	got := registry.PathBuilder{}.Base(registry.ParsePath("/a/b/c")).Prefixes()
	want := []string{"/a", "/a/b", "/a/b/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prefixes() = %v, want %v", got, want)
	}
}

func TestConnect_NoServers(t *testing.T) {
	if _, err := registry.Connect(nil, "/echor", time.Second); err == nil {
		t.Errorf("Connect() without servers should fail")
	}
}
