package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"pbs/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3DownloadImage fetches a pitch image into the temp dir. Returns nil when
// the key does not exist so callers can fall back to a placeholder.
func S3DownloadImage(key string) error {
	imagesBucket := os.Getenv("S3_IMAGES_BUCKET")
	client := lib.AWSGetS3Client()
	result, err := client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(imagesBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return err
	}
	defer result.Body.Close()
	tempdir := os.Getenv("TEMP_DIR")
	filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", key))
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()
	body, err := io.ReadAll(result.Body)
	if err != nil {
		return err
	}
	if _, err := file.Write(body); err != nil {
		return err
	}
	return nil
}

// S3UploadImage stores a local file under the given key and returns the key.
func S3UploadImage(key string, f string) (*string, error) {
	imagesBucket := os.Getenv("S3_IMAGES_BUCKET")
	client := lib.AWSGetS3Client()
	file, err := os.Open(f)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	_, err = client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(imagesBucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		log.Printf("Error uploading object %s: %s\n", key, err.Error())
		return nil, err
	}
	return &key, nil
}
