package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
)

func GetRunDirectoryPath(runId string) string {
	return fmt.Sprintf("runs/%s", runId)
}

func ToRunObjectKey(runId string, filename string) string {
	return path.Join(GetRunDirectoryPath(runId), path.Base(filename))
}

// Example output for "ex.txt": "21313123123_ex.txt"
func AddUniquePrefixToFileName(fileName string) string {
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), fileName)
}

func createBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		if err := s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Add a prefix to the file name
	// For example, if the file name is "summary.txt" and the prefix is "runs/123",
	// the resulting name will be "runs/123/summary.txt"
	DirectoryPath string
	UniquePrefix  bool
	Bucket        string
	S3            *minio.Client
}

// UploadBytesToS3 stores data under the prepared object name and returns the upload info.
// An empty contentType is detected from the name, then from the content.
func UploadBytesToS3(ctx context.Context, name, contentType string, data []byte, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	if contentType == "" {
		contentType = detectContentType(name, data)
	}

	info, err := fuo.S3.PutObject(
		ctx,
		fuo.Bucket,
		prepareFileName(name, fuo),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// DownloadBytesFromS3 reads a whole object into memory.
func DownloadBytesFromS3(ctx context.Context, s3 *minio.Client, bucket, objectName string) ([]byte, error) {
	object, err := s3.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return data, nil
}

// Generates the final file name with uniqueness and prefix
func prepareFileName(originalName string, fuo *FileUploadOptions) string {
	fileName := originalName

	if fuo != nil {
		if fuo.UniquePrefix {
			fileName = AddUniquePrefixToFileName(originalName)
		}

		if fuo.DirectoryPath != "" {
			fileName = path.Join(fuo.DirectoryPath, fileName)
		}
	}

	return fileName
}

func detectContentType(name string, data []byte) string {
	// 1) Try extension-based lookup
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		return contentType
	}

	// 2) Fall back to sniffing the first 512 bytes
	return http.DetectContentType(data[:min(512, len(data))])
}
