// Package goesaws downloads ABI-L2-FDCF granules from the public NOAA
// GOES-16 archive on S3.
package goesaws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
	"github.com/couchcryptid/goes-fire-etl/internal/window"
)

// Validator reports whether a downloaded granule is a readable dataset.
type Validator interface {
	Valid(path string) bool
}

// Options configures an Acquirer. Endpoint and Bucket default to the public
// NOAA archive; Product is the S3 key prefix of the fire product.
type Options struct {
	Endpoint string
	Bucket   string
	Product  string
	Secure   bool
}

// DefaultOptions points at the open noaa-goes16 bucket.
func DefaultOptions() Options {
	return Options{
		Endpoint: "s3.amazonaws.com",
		Bucket:   "noaa-goes16",
		Product:  "ABI-L2-FDCF",
		Secure:   true,
	}
}

// Acquirer lists granules on the archive for a window and downloads the ones
// missing from local storage. The archive requires no credentials.
type Acquirer struct {
	client      *minio.Client
	opts        Options
	storageRoot string
	validator   Validator
	logger      *slog.Logger
}

// New builds an Acquirer against the configured archive endpoint.
func New(opts Options, storageRoot string, validator Validator, logger *slog.Logger) (*Acquirer, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStatic("", "", "", credentials.SignatureAnonymous),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("new s3 client: %w", err)
	}
	return &Acquirer{
		client:      client,
		opts:        opts,
		storageRoot: storageRoot,
		validator:   validator,
		logger:      logger,
	}, nil
}

// Acquire lists every hour prefix the window touches, keeps the granules
// whose scan time falls inside the window, and downloads the ones not yet in
// local storage. It returns the local paths of all granules in the window,
// downloaded now or present from an earlier pass.
func (a *Acquirer) Acquire(ctx context.Context, w window.Window) ([]string, error) {
	if err := os.MkdirAll(a.storageRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	var paths []string
	for _, prefix := range hourPrefixes(a.opts.Product, w) {
		keys, err := a.listPrefix(ctx, prefix, w)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			local, err := a.fetch(ctx, key)
			if err != nil {
				return nil, err
			}
			if local != "" {
				paths = append(paths, local)
			}
		}
	}

	a.logger.Info("acquisition complete", "window", w.String(), "granules", len(paths))
	return paths, nil
}

// listPrefix returns the keys under one hour prefix whose encoded scan time
// falls inside the window. Objects without a scan-time marker are not
// granules and are skipped.
func (a *Acquirer) listPrefix(ctx context.Context, prefix string, w window.Window) ([]string, error) {
	var keys []string
	for obj := range a.client.ListObjects(ctx, a.opts.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		ts, err := domain.ParseSceneTime(path.Base(obj.Key))
		if errors.Is(err, domain.ErrBadSceneName) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if w.Contains(ts) {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// fetch downloads one granule unless it is already on disk. Downloads that
// fail validation are deleted so a later pass can retry them; fetch reports
// those with an empty path and no error.
func (a *Acquirer) fetch(ctx context.Context, key string) (string, error) {
	local := filepath.Join(a.storageRoot, path.Base(key))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := a.client.FGetObject(ctx, a.opts.Bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	if a.validator != nil && !a.validator.Valid(local) {
		a.logger.Warn("downloaded granule failed validation, removing", "key", key)
		if err := os.Remove(local); err != nil {
			return "", fmt.Errorf("remove corrupt download: %w", err)
		}
		return "", nil
	}

	a.logger.Info("granule downloaded", "key", key)
	return local, nil
}

// hourPrefixes enumerates the archive prefixes, one per UTC hour, that the
// half-open window [Start, End) touches. Keys are laid out as
// product/YYYY/DDD/HH/.
func hourPrefixes(product string, w window.Window) []string {
	var prefixes []string
	for h := w.Start.UTC().Truncate(time.Hour); h.Before(w.End); h = h.Add(time.Hour) {
		prefixes = append(prefixes, fmt.Sprintf("%s/%04d/%03d/%02d/",
			product, h.Year(), h.YearDay(), h.Hour()))
	}
	return prefixes
}
