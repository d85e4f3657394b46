package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeSource(t *testing.T, content string) (path, sum string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "source.img")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	h := sha256.Sum256([]byte(content))
	return path, hex.EncodeToString(h[:])
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	return repo
}

func TestImport(t *testing.T) {
	repo := newTestRepo(t)
	src, sum := writeSource(t, "qcow2 image bytes")

	got, err := repo.Import(context.Background(), src, sum)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got != sum {
		t.Errorf("Import() = %v, want %v", got, sum)
	}

	stored := filepath.Join(repo.Path(), sum+".qcow2")
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored image missing: %v", err)
	}
	if string(data) != "qcow2 image bytes" {
		t.Errorf("stored content = %q", data)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(repo.Path())
	if len(entries) != 1 {
		t.Errorf("repository has %d entries, want 1", len(entries))
	}
}

func TestImport_FileURL(t *testing.T) {
	repo := newTestRepo(t)
	src, sum := writeSource(t, "from a url")

	if _, err := repo.Import(context.Background(), "file://"+src, sum); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if _, err := repo.Resolve(sum); err != nil {
		t.Errorf("Resolve() error = %v", err)
	}
}

func TestImport_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	src, sum := writeSource(t, "same image")

	if _, err := repo.Import(context.Background(), src, sum); err != nil {
		t.Fatal(err)
	}

	stored := filepath.Join(repo.Path(), sum+".qcow2")
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(stored, past, past); err != nil {
		t.Fatal(err)
	}

	// The source is gone: a second import must not read it.
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Import(context.Background(), src, sum)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if got != sum {
		t.Errorf("second Import() = %v, want %v", got, sum)
	}

	info, err := os.Stat(stored)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("stored image was rewritten: mtime %v, want %v", info.ModTime(), past)
	}
}

func TestImport_DigestMismatch(t *testing.T) {
	repo := newTestRepo(t)
	src, _ := writeSource(t, "tampered")
	_, wrong := writeSource(t, "original")

	_, err := repo.Import(context.Background(), src, wrong)
	if !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("Import() error = %v, want ErrDigestMismatch", err)
	}

	if _, err := os.Stat(filepath.Join(repo.Path(), wrong+".qcow2")); !os.IsNotExist(err) {
		t.Error("file stored under mismatching digest")
	}
	entries, _ := os.ReadDir(repo.Path())
	if len(entries) != 0 {
		t.Errorf("repository has %d leftover entries", len(entries))
	}
	if _, err := repo.Resolve(wrong); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestImport_Errors(t *testing.T) {
	repo := newTestRepo(t)
	src, sum := writeSource(t, "content")

	tests := []struct {
		name    string
		source  string
		digest  string
		wantErr error
	}{
		{name: "http source", source: "http://example.com/x.img", digest: sum, wantErr: ErrUnsupportedSource},
		{name: "s3 source", source: "s3://bucket/x.img", digest: sum, wantErr: ErrUnsupportedSource},
		{name: "remote file host", source: "file://server/x.img", digest: sum, wantErr: ErrUnsupportedSource},
		{name: "short digest", source: src, digest: "abc123", wantErr: ErrInvalidDigest},
		{name: "non hex digest", source: src, digest: strings.Repeat("z", 64), wantErr: ErrInvalidDigest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Import(context.Background(), tt.source, tt.digest)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Import() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("missing source", func(t *testing.T) {
		_, err := repo.Import(context.Background(), filepath.Join(t.TempDir(), "nope"), sum)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Import() error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := repo.Import(ctx, src, sum)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Import() error = %v, want context.Canceled", err)
		}
		if _, err := repo.Resolve(sum); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve() error = %v, want ErrNotFound", err)
		}
	})
}

func TestResolve(t *testing.T) {
	repo := newTestRepo(t)
	src, sum := writeSource(t, "resolve me")

	if _, err := repo.Resolve(sum); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve() before import error = %v, want ErrNotFound", err)
	}

	if _, err := repo.Import(context.Background(), src, sum); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Resolve(strings.ToUpper(sum))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join(repo.Path(), sum+".qcow2")
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestListAndInfos(t *testing.T) {
	repo := newTestRepo(t)
	srcA, sumA := writeSource(t, "image a")
	srcB, sumB := writeSource(t, "image b!")

	for _, p := range [][2]string{{srcA, sumA}, {srcB, sumB}} {
		if _, err := repo.Import(context.Background(), p[0], p[1]); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated entries are ignored.
	if err := os.WriteFile(filepath.Join(repo.Path(), "notes.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo.Path(), ".import-x-1.qcow2"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	names, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{sumA + ".qcow2", sumB + ".qcow2"}
	if sumB < sumA {
		want = []string{sumB + ".qcow2", sumA + ".qcow2"}
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}

	infos, err := repo.Infos()
	if err != nil {
		t.Fatalf("Infos() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Infos() = %d entries, want 2", len(infos))
	}
	for _, info := range infos {
		switch info.Digest {
		case sumA:
			if info.SizeBytes != int64(len("image a")) {
				t.Errorf("size of a = %d", info.SizeBytes)
			}
		case sumB:
			if info.SizeBytes != int64(len("image b!")) {
				t.Errorf("size of b = %d", info.SizeBytes)
			}
		default:
			t.Errorf("unexpected digest %s", info.Digest)
		}
	}
}

func TestSourcePath(t *testing.T) {
	tests := []struct {
		source  string
		want    string
		wantErr bool
	}{
		{source: "/var/tmp/a.img", want: "/var/tmp/a.img"},
		{source: "relative/a.img", want: "relative/a.img"},
		{source: "/var/tmp/100%done.img", want: "/var/tmp/100%done.img"},
		{source: "/var/tmp/a%20b.img", want: "/var/tmp/a%20b.img"},
		{source: "file:///var/tmp/a%20b.img", want: "/var/tmp/a b.img"},
		{source: "file:///var/tmp/100%done.img", wantErr: true},
		{source: "file:///var/tmp/a.img", want: "/var/tmp/a.img"},
		{source: "file://localhost/var/tmp/a.img", want: "/var/tmp/a.img"},
		{source: "https://example.com/a.img", wantErr: true},
		{source: "file://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := SourcePath(tt.source)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SourcePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SourcePath() = %v, want %v", got, tt.want)
			}
		})
	}
}
