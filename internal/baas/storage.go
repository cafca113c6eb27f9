package baas

import (
	"context"
	"strings"
)

const storagePrefix = "/storage/v1/object"

// Upload writes body to bucket/path, replacing any existing object.
func (c *Client) Upload(ctx context.Context, accessToken, bucket, path, contentType string, body []byte) error {
	res, err := c.request(ctx, accessToken).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "true").
		SetBody(body).
		Post(storagePrefix + "/" + bucket + "/" + strings.TrimLeft(path, "/"))
	return check("upload", res, err)
}

// Remove deletes the given objects from bucket, stopping at the first failure.
func (c *Client) Remove(ctx context.Context, accessToken, bucket string, paths ...string) error {
	for _, p := range paths {
		res, err := c.request(ctx, accessToken).
			Delete(storagePrefix + "/" + bucket + "/" + strings.TrimLeft(p, "/"))
		if err := check("remove", res, err); err != nil {
			return err
		}
	}
	return nil
}

// PublicURL is the unauthenticated download URL for an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + storagePrefix + "/public/" + bucket + "/" + strings.TrimLeft(path, "/")
}
