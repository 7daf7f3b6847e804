package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestInternalImportForbidden(t *testing.T) {
	cases := map[string]bool{
		"example.com/mod/internal/core":   true,
		"some/internal/deep/path":         true,
		"example.com/internal":            false,
		"internal":                        false,
		"example.com/mod/pkg/domain":      false,
		"example.com/mod/notinternal/pkg": false,
		"":                                false,
	}
	for in, want := range cases {
		if got := InternalImportForbidden(in); got != want {
			t.Errorf("InternalImportForbidden(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInfraImportForbidden(t *testing.T) {
	cases := map[string]bool{
		"database/sql":                                   true,
		"database/sql/driver":                            true,
		"github.com/jackc/pgx/v5/stdlib":                 true,
		"modernc.org/sqlite":                             true,
		"github.com/aws/aws-sdk-go-v2/service/s3":        true,
		"github.com/rabbitmq/amqp091-go":                 true,
		"go.opentelemetry.io/otel/trace":                 true,
		"github.com/prometheus/client_golang/prometheus": true,
		"github.com/spf13/cobra":                         true,
		"golang.org/x/text/cases":                        false,
		"database/sqlx":                                  false,
		"context":                                        false,
	}
	for in, want := range cases {
		if got := InfraImportForbidden(in); got != want {
			t.Errorf("InfraImportForbidden(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAssertNoDirectImportsIgnoresTestsDirsAndNonGo(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "x.go", "package tmp\nimport (\n\t\"fmt\"\n\talias \"context\"\n)\nfunc X(){fmt.Println(alias.Background())}")
	writeGo(t, dir, "x_test.go", "package tmp\nimport \"forbidden/pkg\"\n")
	writeGo(t, dir, "readme.txt", "import \"forbidden/pkg\"")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, sub, "sub.go", "package sub\nimport \"forbidden/pkg\"\n")
	AssertNoDirectImports(t, dir, func(ip string) bool { return ip == "forbidden/pkg" }, "only top-level sources count")
}

func TestDirectImportViolationsReported(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "store.go", "package tmp\nimport _ \"modernc.org/sqlite\"\n")
	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite (in store.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}
	var rec recordingFatal
	failIfViolations(&rec, "forbidden direct imports detected", "domain purity", viols)
	if !strings.Contains(rec.msg, "domain purity") || !strings.Contains(rec.msg, "store.go") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
}

func TestDirectImportViolationsMissingDir(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InfraImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestTransitiveDependencyViolationsUsesGoList(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })
	goListDeps = func(pattern string) ([]byte, error) {
		if pattern != "./..." {
			t.Fatalf("unexpected pattern %q", pattern)
		}
		return []byte("context\n\nexample.com/mod/internal/core\nerrors\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", InternalImportForbidden)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if len(viols) != 1 || viols[0] != "example.com/mod/internal/core" {
		t.Fatalf("unexpected violations %v", viols)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), fmt.Errorf("exit 1") }
	if _, out, err := transitiveDependencyViolations(".", InternalImportForbidden); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list error, got %v %q", err, out)
	}
}
