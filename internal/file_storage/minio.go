package filestorage

import (
	"context"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// MinioSink uploads materialized files under runs/<runId>/ in a bucket.
type MinioSink struct {
	s3     *minio.Client
	bucket string
	runID  string
	logger *zap.SugaredLogger
}

func NewMinioSink(s3 *minio.Client, bucket, runID string, logger *zap.SugaredLogger) *MinioSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MinioSink{s3: s3, bucket: bucket, runID: runID, logger: logger}
}

func (ms *MinioSink) Put(ctx context.Context, name, contentType string, data []byte) error {
	info, err := util.UploadBytesToS3(ctx, name, contentType, data, &util.FileUploadOptions{
		DirectoryPath: util.GetRunDirectoryPath(ms.runID),
		Bucket:        ms.bucket,
		S3:            ms.s3,
	})
	if err != nil {
		return err
	}

	ms.logger.Debugf("Uploaded %s (%d bytes) to %s/%s", name, info.Size, info.Bucket, info.Key)
	return nil
}

// Key returns the object key a file written through this sink ends up at.
func (ms *MinioSink) Key(name string) string {
	return util.ToRunObjectKey(ms.runID, name)
}

// Get downloads a file previously written through this sink.
func (ms *MinioSink) Get(ctx context.Context, name string) ([]byte, error) {
	return util.DownloadBytesFromS3(ctx, ms.s3, ms.bucket, ms.Key(name))
}
