package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestLocal(t *testing.T) *Local {
	l, err := NewLocal("http://localhost:8099/", t.TempDir(), "unit-test-secret")
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLocalPresignAndVerify(t *testing.T) {
	l := newTestLocal(t)

	signed, err := l.PresignUpload(context.Background(), "test.jpg", "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatal(err)
	}

	if u.Path != "/localfs/test.jpg" {
		t.Errorf("expected /localfs/test.jpg got %s", u.Path)
	}

	q := u.Query()
	if err := l.Verify("test.jpg", q.Get("contentType"), q.Get("expires"), q.Get("signature")); err != nil {
		t.Fatal(err)
	}

	if err := l.Verify("other.jpg", q.Get("contentType"), q.Get("expires"), q.Get("signature")); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature for another key got %v", err)
	}

	if err := l.Verify("test.jpg", "image/png", q.Get("expires"), q.Get("signature")); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature for another content type got %v", err)
	}
}

func TestLocalVerifyExpired(t *testing.T) {
	l := newTestLocal(t)
	l.now = func() time.Time { return time.Now().Add(-2 * UploadTTL) }

	signed, err := l.PresignUpload(context.Background(), "test.jpg", "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}

	l.now = time.Now

	u, _ := url.Parse(signed)
	q := u.Query()
	if err := l.Verify("test.jpg", q.Get("contentType"), q.Get("expires"), q.Get("signature")); err != ErrExpired {
		t.Errorf("expected ErrExpired got %v", err)
	}
}

func TestLocalSaveAndOpen(t *testing.T) {
	l := newTestLocal(t)

	if err := l.Save("dir/hello.txt", strings.NewReader("hello world")); err != nil {
		t.Fatal(err)
	}

	f, err := l.Open("dir/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	} else if string(b) != "hello world" {
		t.Errorf("expected hello world got %s", string(b))
	}
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	l := newTestLocal(t)

	keys := []string{"", "../secret", "a/../../secret"}
	for _, key := range keys {
		if err := l.Save(key, strings.NewReader("x")); err != ErrInvalidKey {
			t.Errorf("%q: expected ErrInvalidKey got %v", key, err)
		}
	}
}

func TestLocalMediaURL(t *testing.T) {
	l := newTestLocal(t)

	expected := "http://localhost:8099/localfs/test.jpg"
	if u := l.MediaURL("test.jpg"); u != expected {
		t.Errorf("expected %s got %s", expected, u)
	}
}
