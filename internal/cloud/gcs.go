// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file covers Cloud Storage: the notification payload a bucket sends to
// Pub/Sub, the reduced object handle used inside workflows, and the object
// read/write helpers used for video staging.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GetGCSObjectName is the cor context key under which workflows keep the
// GCSObject being processed.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload of a Cloud Storage notification.
type GCSPubSubNotification struct {
	Kind           string                 `json:"kind"`
	ID             string                 `json:"id"`
	SelfLink       string                 `json:"selfLink"`
	Name           string                 `json:"name"`
	Bucket         string                 `json:"bucket"`
	Generation     string                 `json:"generation"`
	MetaGeneration string                 `json:"metageneration"`
	ContentType    string                 `json:"contentType"`
	TimeCreated    string                 `json:"timeCreated"`
	Updated        string                 `json:"updated"`
	StorageClass   string                 `json:"storageClass"`
	Size           string                 `json:"size"`
	MD5Hash        string                 `json:"md5Hash"`
	MediaLink      string                 `json:"mediaLink"`
	MetaData       map[string]interface{} `json:"metadata"`
	Crc32c         string                 `json:"crc32c"`
	ETag           string                 `json:"etag"`
}

// GCSObject identifies an object inside a workflow.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "video/mp4").
}

// URI returns the gs:// form of the object.
func (o GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// ParseGCSNotification decodes a notification and reduces it to a GCSObject.
func ParseGCSNotification(payload []byte) (*GCSObject, error) {
	var n GCSPubSubNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("failed to decode storage notification: %w", err)
	}
	if n.Bucket == "" || n.Name == "" {
		return nil, fmt.Errorf("storage notification has no bucket or object name")
	}
	return &GCSObject{Bucket: n.Bucket, Name: n.Name, MIMEType: n.ContentType}, nil
}

// UploadObject writes data to bucket/name.
func UploadObject(ctx context.Context, client *storage.Client, object GCSObject, data []byte) error {
	w := client.Bucket(object.Bucket).Object(object.Name).NewWriter(ctx)
	w.ContentType = object.MIMEType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", object.URI(), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", object.URI(), err)
	}
	return nil
}

// ReadObject reads at most limit bytes of bucket/name; a larger object is an
// error.
func ReadObject(ctx context.Context, client *storage.Client, object GCSObject, limit int64) ([]byte, error) {
	r, err := client.Bucket(object.Bucket).Object(object.Name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", object.URI(), err)
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", object.URI(), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", object.URI(), limit)
	}
	return data, nil
}

// DeleteObject removes bucket/name. A missing object is not an error.
func DeleteObject(ctx context.Context, client *storage.Client, object GCSObject) error {
	err := client.Bucket(object.Bucket).Object(object.Name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", object.URI(), err)
	}
	return nil
}
