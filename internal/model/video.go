package model

import (
	"time"

	"github.com/sakif/openlecture/internal/authz"
)

const DefaultSubject = "General"

// Video is an uploaded lecture and its metadata.
//
// The object itself lives in S3 under S3Bucket/S3Key; this record only
// points at it. LikeCount, DislikeCount and CommentCount are denormalized
// aggregates owned by the reconcile package: clients never write them.
type Video struct {
	ID          string           `json:"id"`
	UploaderID  string           `json:"uploaderId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Subject     string           `json:"subject"`
	CourseCode  string           `json:"courseCode"`
	Tags        []string         `json:"tags"`
	Visibility  authz.Visibility `json:"visibility"`

	S3Bucket    string `json:"s3Bucket"`
	S3Key       string `json:"s3Key"`
	ContentType string `json:"contentType"`
	SizeBytes   *int64 `json:"sizeBytes,omitempty"`

	ViewCount    int `json:"viewCount"`
	LikeCount    int `json:"likeCount"`
	DislikeCount int `json:"dislikeCount"`
	CommentCount int `json:"commentCount"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	IsDeleted bool       `json:"isDeleted"`
}

func (v Video) RecordID() string { return v.ID }
