package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/tdfffffffff/bto-housing-management-system"

// infraBoundaries maps an infra package tree to the only package trees allowed
// to import it. Everything else goes through the interfaces those owners expose.
var infraBoundaries = map[string][]string{
	modulePath + "/internal/infra/blob": {
		modulePath + "/internal/blob",
	},
	modulePath + "/internal/infra/persistence": {
		modulePath + "/internal/core",
	},
}

func TestInfraPackagesOnlyImportedByOwners(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for infra, owners := range infraBoundaries {
			if hasPrefixPath(pkg.PkgPath, infra) || ownedBy(pkg.PkgPath, owners) {
				continue
			}
			for importPath := range pkg.Imports {
				if hasPrefixPath(importPath, infra) {
					violations = append(violations, pkg.PkgPath+": "+importPath)
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden infra import: %s", v)
		}
		t.Fatalf("found %d forbidden infra imports", len(violations))
	}
}

func ownedBy(pkgPath string, owners []string) bool {
	for _, owner := range owners {
		if hasPrefixPath(pkgPath, owner) {
			return true
		}
	}
	return false
}

func hasPrefixPath(importPath, prefix string) bool {
	importPath = strings.TrimSuffix(importPath, ".test")
	importPath = strings.TrimSuffix(importPath, "_test")
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
