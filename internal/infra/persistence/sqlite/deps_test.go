package sqlite

import (
	"strings"
	"testing"

	"github.com/tdfffffffff/bto-housing-management-system/testutil"
)

const modulePath = "github.com/tdfffffffff/bto-housing-management-system/"

func TestSQLiteStoreImports(t *testing.T) {
	allowed := map[string]bool{
		modulePath + "pkg/domain":                        true,
		modulePath + "internal/infra/persistence/memory": true,
	}
	testutil.AssertNoDirectImports(t, ".", func(ip string) bool {
		return strings.HasPrefix(ip, modulePath) && !allowed[ip]
	}, "sqlite store builds on the memory store and domain only")
}
