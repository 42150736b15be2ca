// Package blobstore abstracts the storage backends a model registry can live
// on.
//
// A Store holds named immutable blobs (model snapshots); backends exist for
// the local file system, memory (tests), S3 and MinIO. The s3 subpackage
// additionally provides a DynamoDB-backed pointer so concurrent writers can
// publish a "current" snapshot atomically.
package blobstore
