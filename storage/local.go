package storage

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidKey       = errors.New("invalid object key")
	ErrInvalidSignature = errors.New("invalid upload signature")
	ErrExpired          = errors.New("upload URL expired")
)

// Local stores files on disk and signs upload URLs with an HMAC secret.
// It stands in for S3 when running the local server.
type Local struct {
	baseURL string
	dir     string
	secret  []byte
	now     func() time.Time
}

// NewLocal returns a Local provider serving files under baseURL/localfs/.
// An empty dir defaults to the OS temp directory and an empty secret to a
// random one, which invalidates outstanding URLs on restart.
func NewLocal(baseURL, dir, secret string) (*Local, error) {
	if len(dir) == 0 {
		dir = filepath.Join(os.TempDir(), "filesharing")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}

	return &Local{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dir:     dir,
		secret:  key,
		now:     time.Now,
	}, nil
}

func (l *Local) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	if _, err := l.path(key); err != nil {
		return "", err
	}

	expires := strconv.FormatInt(l.now().Add(UploadTTL).Unix(), 10)

	q := url.Values{}
	q.Set("contentType", contentType)
	q.Set("expires", expires)
	q.Set("signature", l.sign(key, contentType, expires))

	u := url.URL{Path: key}
	return fmt.Sprintf("%s/localfs/%s?%s", l.baseURL, u.EscapedPath(), q.Encode()), nil
}

func (l *Local) MediaURL(key string) string {
	return fmt.Sprintf("%s/localfs/%s", l.baseURL, key)
}

// Verify checks an upload signature produced by PresignUpload.
func (l *Local) Verify(key, contentType, expires, signature string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	expected := l.sign(key, contentType, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	if l.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

// Save writes the content of r as key.
func (l *Local) Save(key string, r io.Reader) error {
	filename, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Close()
}

// Open returns the stored file for key.
func (l *Local) Open(key string) (*os.File, error) {
	filename, err := l.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filename)
}

func (l *Local) sign(key, contentType, expires string) string {
	mac := hmac.New(sha256.New, l.secret)
	mac.Write([]byte(key + "\n" + contentType + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}

// path resolves key inside the storage directory, refusing anything that
// would escape it.
func (l *Local) path(key string) (string, error) {
	if len(key) == 0 {
		return "", ErrInvalidKey
	}

	root := filepath.Clean(l.dir)
	filename := filepath.Join(root, filepath.FromSlash(key))
	if !strings.HasPrefix(filename, root+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return filename, nil
}
