package localstore

import (
	"os"
	"path/filepath"
	"testing"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "nbshell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_SchemaCreation(t *testing.T) {
	s := testSQLite(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
}

func TestSQLite_SetGetOverwrite(t *testing.T) {
	s := testSQLite(t)
	if err := s.Set("ticket", "a"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("ticket", "b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("ticket")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got != "b" {
		t.Errorf("Get = (%q, %v), want (b, true)", got, ok)
	}
}

func TestSQLite_GetMissingAndRemove(t *testing.T) {
	s := testSQLite(t)
	if _, ok, err := s.Get("nope"); err != nil || ok {
		t.Fatalf("Get missing = (%v, %v)", ok, err)
	}
	_ = s.Set("k", "v")
	if err := s.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("key still present after remove")
	}
}

func TestPrefixed_NamespacesKeys(t *testing.T) {
	inner := testSQLite(t)
	p := WithPrefix(inner, "zeppelin")
	if err := p.Set("ticket", "T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := inner.Get("ticket"); ok {
		t.Error("unprefixed key should not exist")
	}
	got, ok, _ := inner.Get("zeppelin.ticket")
	if !ok || got != "T1" {
		t.Errorf("inner zeppelin.ticket = (%q, %v)", got, ok)
	}
	got, ok, _ = p.Get("ticket")
	if !ok || got != "T1" {
		t.Errorf("prefixed ticket = (%q, %v)", got, ok)
	}
}

func TestOpen_Drivers(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(DriverFile, filepath.Join(dir, "kv"))
	if err != nil {
		t.Fatalf("file driver: %v", err)
	}
	_ = s.Close()

	s, err = Open(DriverSQLite, filepath.Join(dir, "kv.db"))
	if err != nil {
		t.Fatalf("sqlite driver: %v", err)
	}
	_ = s.Close()

	if _, err := Open("redis", ""); err == nil {
		t.Error("unknown driver should fail")
	}
}
