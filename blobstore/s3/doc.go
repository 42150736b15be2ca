// Package s3 implements blobstore.Store on Amazon S3.
//
// Snapshots upload through the AWS upload manager, so large centroid sets
// stream in parts instead of buffering whole. The Registry type adds a
// DynamoDB-backed pointer with conditional writes, giving concurrent
// publishers the compare-and-swap semantics S3 itself lacks.
package s3
