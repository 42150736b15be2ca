// Package minio implements blobstore.Store for MinIO and other S3-compatible
// object storage that is addressed through the MinIO client rather than the
// AWS SDK (self-hosted MinIO, Ceph, GCS in interoperability mode).
package minio
