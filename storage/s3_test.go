package storage

import (
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"estate_hub/config"
	"estate_hub/models"
)

func TestPublicURL(t *testing.T) {
	key := "property_images/abc.jpg"

	aws := config.S3Config{Bucket: "listings", Region: "eu-west-1"}
	assert.Equal(t, "https://listings.s3.eu-west-1.amazonaws.com/property_images/abc.jpg", PublicURL(aws, key))

	spaces := config.S3Config{Bucket: "listings", Endpoint: "https://fra1.digitaloceanspaces.com"}
	assert.Equal(t, "https://listings.fra1.digitaloceanspaces.com/property_images/abc.jpg", PublicURL(spaces, key))

	minio := config.S3Config{Bucket: "listings", Endpoint: "http://localhost:9000/"}
	assert.Equal(t, "http://localhost:9000/listings/property_images/abc.jpg", PublicURL(minio, key))
}

func TestS3Reason(t *testing.T) {
	assert.Equal(t, models.ReasonPermission, s3Reason(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.Equal(t, models.ReasonNotFound, s3Reason(&smithy.GenericAPIError{Code: "NoSuchBucket"}))
	assert.Equal(t, models.ReasonInternal, s3Reason(&smithy.GenericAPIError{Code: "SlowDown"}))
}
