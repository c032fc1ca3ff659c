package gcp

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/storage/v1"
)

// stagingBucket is the Cloud Build staging bucket for a project, matching the
// bucket gcloud uses for source uploads.
func stagingBucket(projectID string) string {
	return projectID + "_cloudbuild"
}

// uploadSource packs the source directory into a gzipped tarball and uploads
// it to the project's Cloud Build staging bucket. It returns the bucket and
// object name for the build's StorageSource.
func uploadSource(ctx context.Context, svc *storage.Service, projectID, sourceDir string) (string, string, error) {
	tarball, err := createTarball(sourceDir)
	if err != nil {
		return "", "", fmt.Errorf("create source tarball: %w", err)
	}

	bucket := stagingBucket(projectID)
	if err := ensureStagingBucket(ctx, svc, projectID, bucket); err != nil {
		return "", "", err
	}

	object := fmt.Sprintf("source/%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	_, err = svc.Objects.Insert(bucket, &storage.Object{Name: object}).
		Media(bytes.NewReader(tarball)).
		Context(ctx).
		Do()
	if err != nil {
		return "", "", wrapError("upload source tarball", err)
	}

	return bucket, object, nil
}

func ensureStagingBucket(ctx context.Context, svc *storage.Service, projectID, bucket string) error {
	_, err := svc.Buckets.Get(bucket).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return wrapError("get staging bucket", err)
	}

	_, err = svc.Buckets.Insert(projectID, &storage.Bucket{Name: bucket}).Context(ctx).Do()
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create staging bucket", err)
}

func createTarball(sourceDir string) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	absPath, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(absPath, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if shouldIgnore(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			if _, err := io.Copy(tarWriter, file); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := tarWriter.Close(); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}

	ignoreDirs := []string{
		"node_modules",
		"__pycache__",
		"venv",
		"dist",
	}
	for _, dir := range ignoreDirs {
		if base == dir {
			return true
		}
	}
	return false
}
