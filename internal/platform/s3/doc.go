// Package s3 provides a small client for S3-compatible object storage,
// used to keep provisioning state outside the host that runs the cycle.
//
// Any endpoint speaking the S3 XML protocol works (AWS, Hetzner Object
// Storage, MinIO). Missing objects are reported as ErrObjectNotFound so
// callers can tell absent state apart from unreachable storage.
package s3
