package memory

import (
	"context"
	"net/http"
	"strings"

	"github.com/reacts/reacts/internal/baas"
)

// PublicPrefix is where Handler expects to be mounted.
const PublicPrefix = "/storage/v1/object/public/"

func objectKey(bucket, path string) string {
	return bucket + "/" + strings.TrimLeft(path, "/")
}

func (b *Backend) Upload(_ context.Context, accessToken, bucket, path, contentType string, body []byte) error {
	if _, err := b.userFromToken(accessToken); err != nil {
		return err
	}

	buf := make([]byte, len(body))
	copy(buf, body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey(bucket, path)] = object{contentType: contentType, body: buf}
	return nil
}

func (b *Backend) Remove(_ context.Context, accessToken, bucket string, paths ...string) error {
	if _, err := b.userFromToken(accessToken); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range paths {
		key := objectKey(bucket, p)
		if _, ok := b.objects[key]; !ok {
			return baas.NewError(http.StatusNotFound, "Object not found")
		}
		delete(b.objects, key)
	}
	return nil
}

func (b *Backend) PublicURL(bucket, path string) string {
	return b.publicURL + PublicPrefix + objectKey(bucket, path)
}

// Handler serves stored objects below PublicPrefix.
func (b *Backend) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, PublicPrefix)

		b.mu.RLock()
		obj, ok := b.objects[key]
		b.mu.RUnlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(obj.body)
	})
}
