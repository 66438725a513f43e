package flavour_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sccmod/internal/flavour"
	"sccmod/internal/module"
)

func rec(name, version, class string, deps ...module.Dependency) *module.Record {
	return &module.Record{Name: name, Version: version, Class: class, Dependencies: deps}
}

func names(flavours []flavour.Flavour) []string {
	out := make([]string, len(flavours))
	for i, f := range flavours {
		out[i] = f.Suffix()
	}
	return out
}

// S1: no required classes and no required modules emits exactly one
// "default" flavour.
func TestExpandNoRequiredClasses(t *testing.T) {
	m := rec("zlib", "1.3", "lib")
	catalogue := []*module.Record{m}

	got, err := flavour.Expand(m, catalogue)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/1/default"}, names(got)); diff != "" {
		t.Errorf("unexpected flavours (-want +got):\n%s", diff)
	}
	if got[0].K != 0 {
		t.Errorf("K = %d, want 0", got[0].K)
	}
}

// S2: one required class with two candidates produces one flavour per
// candidate, in catalogue order.
func TestExpandOneRequiredClass(t *testing.T) {
	gcc := rec("gcc", "12.2", "compiler")
	clang := rec("clang", "16.0", "compiler")
	app := rec("app", "1.0", "lib", module.Dependency{Kind: module.KindClass, Name: "compiler"})

	catalogue := []*module.Record{gcc, clang, app}

	got, err := flavour.Expand(app, catalogue)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/1/gcc-12.2", "/1/clang-16.0"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("unexpected flavours (-want +got):\n%s", diff)
	}
}

// S3: a deny spec excludes any flavour combination containing every one of
// its (colon-separated) short names.
func TestExpandDenyFiltersCombination(t *testing.T) {
	gcc := rec("gcc", "12.2", "compiler")
	clang := rec("clang", "16.0", "compiler")
	app := rec("app", "1.0", "lib",
		module.Dependency{Kind: module.KindClass, Name: "compiler"},
		module.Dependency{Kind: module.KindDeny, Name: "gcc/12.2"},
	)

	catalogue := []*module.Record{gcc, clang, app}

	got, err := flavour.Expand(app, catalogue)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/1/clang-16.0"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("unexpected flavours (-want +got):\n%s", diff)
	}
}

// A required Module/Depends dependency is appended after the class peers
// in every flavour and is included in ModNames(), but does not affect K.
func TestExpandRequiredModuleAppended(t *testing.T) {
	gcc := rec("gcc", "12.2", "compiler")
	zlib := rec("zlib", "1.3", "lib")
	app := rec("app", "1.0", "lib",
		module.Dependency{Kind: module.KindClass, Name: "compiler"},
		module.Dependency{Kind: module.KindDepends, Name: "zlib/1.3"},
	)

	catalogue := []*module.Record{gcc, zlib, app}

	got, err := flavour.Expand(app, catalogue)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].K != 1 {
		t.Errorf("K = %d, want 1", got[0].K)
	}
	if diff := cmp.Diff([]string{"gcc/12.2", "zlib/1.3"}, got[0].ModNames()); diff != "" {
		t.Errorf("unexpected mod names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("/1/gcc-12.2", got[0].Suffix()); diff != "" {
		t.Errorf("unexpected suffix (-want +got):\n%s", diff)
	}
}

// A required class with zero catalogue candidates makes the Cartesian
// product empty: no builds, not an error (spec.md §3).
func TestExpandRequiredClassWithNoCandidatesYieldsNoFlavours(t *testing.T) {
	app := rec("app", "1.0", "lib", module.Dependency{Kind: module.KindClass, Name: "compiler"})

	got, err := flavour.Expand(app, []*module.Record{app})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestExpandUnresolvableDependencyErrors(t *testing.T) {
	app := rec("app", "1.0", "lib", module.Dependency{Kind: module.KindModule, Name: "missing/9.9"})
	if _, err := flavour.Expand(app, []*module.Record{app}); err == nil {
		t.Fatal("expected an error for an unresolvable dependency")
	}
}
