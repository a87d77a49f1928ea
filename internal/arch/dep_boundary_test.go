package arch_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/tealgate/instacred"

// forbiddenInCore lists import prefixes that must stay in adapters. Core is
// allowed the small leaf libraries it uses directly (validator, mapstructure,
// uuid, singleflight); transports, config loaders, and metrics backends are
// not on that list.
var forbiddenInCore = []string{
	modulePath + "/internal/adapters",
	modulePath + "/internal/cli",
	modulePath + "/pkg",
	"net/http",
	"github.com/spf13/viper",
	"github.com/spf13/cobra",
	"github.com/prometheus/client_golang",
	"gopkg.in/yaml.v3",
}

func loadPackages(t *testing.T, patterns ...string) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedFiles,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		t.Fatalf("packages.Load: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("failed to load packages %v", patterns)
	}
	return pkgs
}

func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func Test_Core_Has_No_Forbidden_Imports(t *testing.T) {
	t.Parallel()

	pkgs := loadPackages(t, modulePath+"/internal/core/...")

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			for _, prefix := range forbiddenInCore {
				if matchesPrefix(importPath, prefix) {
					violations = append(violations, pkg.PkgPath+" -> "+importPath)
				}
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("import boundary violated:\n  %s\n\nmove the capability behind a port in internal/core/ports and implement it in internal/adapters",
			strings.Join(violations, "\n  "))
	}
}

// Domain stays a leaf: stdlib, sibling core packages, and the decode-hook
// dependency only.
func Test_Domain_Stays_Leaf(t *testing.T) {
	t.Parallel()

	allowedThirdParty := []string{
		"github.com/go-viper/mapstructure/v2",
	}

	pkgs := loadPackages(t, modulePath+"/internal/core/domain/...")

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if !strings.Contains(strings.SplitN(importPath, "/", 2)[0], ".") {
				continue // stdlib
			}
			if matchesPrefix(importPath, modulePath+"/internal/core") {
				continue
			}
			allowed := false
			for _, prefix := range allowedThirdParty {
				if matchesPrefix(importPath, prefix) {
					allowed = true
					break
				}
			}
			if !allowed {
				violations = append(violations, pkg.PkgPath+" -> "+importPath)
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("domain imported non-leaf dependencies:\n  %s", strings.Join(violations, "\n  "))
	}
}

// Adapter families (secondary, logging, metrics) talk to each other through
// core ports, never directly.
func Test_Adapters_Do_Not_Import_Each_Other(t *testing.T) {
	t.Parallel()

	adaptersPrefix := modulePath + "/internal/adapters"
	pkgs := loadPackages(t, adaptersPrefix+"/...")

	adapterRoot := func(path string) string {
		rest := strings.TrimPrefix(path, adaptersPrefix+"/")
		parts := strings.SplitN(rest, "/", 2)
		return parts[0]
	}

	var violations []string
	for _, pkg := range pkgs {
		owner := adapterRoot(pkg.PkgPath)
		for importPath := range pkg.Imports {
			if !matchesPrefix(importPath, adaptersPrefix) {
				continue
			}
			if adapterRoot(importPath) != owner {
				violations = append(violations, pkg.PkgPath+" -> "+importPath)
			}
		}
	}

	if len(violations) > 0 {
		t.Fatalf("adapter isolation violated:\n  %s", strings.Join(violations, "\n  "))
	}
}
