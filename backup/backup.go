// Package backup uploads zstd-compressed snapshots of the posts file to
// S3-compatible storage (DigitalOcean Spaces, R2 etc.).
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
}

// ConfigFromEnv builds a Config from BOARD_SPACES_* env variables.
// Returns nil if they are not set, which means "backups disabled".
func ConfigFromEnv() *Config {
	c := &Config{
		Access:   os.Getenv("BOARD_SPACES_KEY"),
		Secret:   os.Getenv("BOARD_SPACES_SECRET"),
		Bucket:   os.Getenv("BOARD_SPACES_BUCKET"),
		Endpoint: os.Getenv("BOARD_SPACES_ENDPOINT"),
		Region:   os.Getenv("BOARD_SPACES_REGION"),
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil
	}
	return c
}

type Client struct {
	mc     *minio.Client
	bucket string
}

func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide access, secret, bucket and endpoint")
	}
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx(), c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Client{
		mc:     mc,
		bucket: c.Bucket,
	}, nil
}

// RemotePathForBackup is the object name for a backup of file name taken
// at time t, e.g. backups/2026/08-24/posts.txt-2026-08-24_13-05-59.zst
func RemotePathForBackup(name string, t time.Time) string {
	return path.Join(
		"backups",
		t.Format("2006"),
		t.Format("01-02"),
		name+"-"+t.Format("2006-01-02_15-04-05")+".zst",
	)
}

// CompressFileZst writes a zstd-compressed copy of src to dst
func CompressFileZst(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	w, err := zstd.NewWriter(out)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	_, err = io.Copy(w, f)
	err2 := w.Close()
	err3 := out.Close()
	if err == nil {
		err = err2
	}
	if err == nil {
		err = err3
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}

// UploadFileZstCompressed compresses path and uploads it as remotePath
func (c *Client) UploadFileZstCompressed(remotePath string, path string) error {
	tmp, err := os.CreateTemp("", "board-backup-*.zst")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err = CompressFileZst(path, tmpPath); err != nil {
		return err
	}
	opts := minio.PutObjectOptions{
		ContentType: "application/zstd",
	}
	_, err = c.mc.FPutObject(ctx(), c.bucket, remotePath, tmpPath, opts)
	return err
}

// Run performs one backup of the posts file at dataPath and returns the
// remote object name.
func Run(config *Config, dataPath string) (string, error) {
	c, err := New(config)
	if err != nil {
		return "", err
	}
	remotePath := RemotePathForBackup(filepath.Base(dataPath), time.Now().UTC())
	err = c.UploadFileZstCompressed(remotePath, dataPath)
	if err != nil {
		return "", err
	}
	return remotePath, nil
}

func ctx() context.Context {
	return context.Background()
}
