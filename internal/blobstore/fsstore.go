package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// FSStore is a filesystem-backed Store: a stand-in for the real blob-store
// collaborator spec.md §1 scopes out, used for single-node deployments and
// integration tests. Presigned URLs are HMAC-signed tokens rather than
// real signed-URL redirects, since there is no HTTP framing layer here to
// redirect through (also contract-only per spec.md §1).
type FSStore struct {
	root   string
	secret []byte
}

// NewFSStore creates a store rooted at dir, creating it if necessary.
// secret signs presigned tokens; it should be stable across process
// restarts so previously-issued URLs remain valid until they expire.
func NewFSStore(dir string, secret []byte) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "create blob store root")
	}
	return &FSStore{root: dir, secret: secret}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *FSStore) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "create blob directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp.*")
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "create temp blob file")
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, data); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "write blob")
	}
	if err := tmp.Close(); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "close blob temp file")
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "rename blob into place")
	}
	return nil
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, bdperr.Wrap(bdperr.KindInternal, err, "stat blob")
	}
	return true, nil
}

// PresignDownload issues a token of the form "key?exp=<unix>&sig=<hmac>"
// that VerifyToken can check without a round-trip to storage metadata.
func (s *FSStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	exp := time.Now().Add(ttl).Unix()
	sig := s.sign(key, exp)
	return fmt.Sprintf("%s?exp=%d&sig=%s", key, exp, sig), nil
}

func (s *FSStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", key, exp)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyToken checks a presigned token previously issued by
// PresignDownload, returning the underlying key on success.
func (s *FSStore) VerifyToken(token string) (string, error) {
	key, query, ok := strings.Cut(token, "?")
	if !ok {
		return "", bdperr.New(bdperr.KindValidation, "malformed presigned token")
	}
	var exp int64
	var sig string
	for _, part := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(part, "=")
		switch k {
		case "exp":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return "", bdperr.New(bdperr.KindValidation, "malformed presigned token expiry")
			}
			exp = n
		case "sig":
			sig = v
		}
	}
	if time.Now().Unix() > exp {
		return "", bdperr.New(bdperr.KindUnauthorized, "presigned token expired")
	}
	want := s.sign(key, exp)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return "", bdperr.New(bdperr.KindUnauthorized, "presigned token signature mismatch")
	}
	return key, nil
}

// Open returns a reader for a verified key, for the server-side handler
// that serves presigned-download requests.
func (s *FSStore) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, bdperr.ErrNotFound
	}
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "open blob")
	}
	return f, nil
}

// SHA256Hex streams r and returns the lowercase hex SHA-256 digest,
// mirroring the dedup hashing spec.md §4.4 performs before insert.
func SHA256Hex(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
