// Package s3 stores avatar frames in an S3 compatible bucket under
// <prefix>/<user id>/<frame>.png.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/samber/lo"
)

// deleteBatch is the DeleteObjects limit.
const deleteBatch = 1000

// Client is the subset of *s3.Client the store uses.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type Storage struct {
	client  Client
	bucket  string
	prefix  string
	baseURL string
}

var (
	_ service.AssetStore   = (*Storage)(nil)
	_ service.GCAssetStore = (*Storage)(nil)
)

// New builds a client from the assets config. Static credentials are used when
// configured, the default AWS chain otherwise.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	assets := cfg.Public.Assets

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(assets.S3Region)}
	if cfg.Private.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Private.S3AccessKey, cfg.Private.S3SecretKey, "",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if assets.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(assets.S3Endpoint)
		}
		o.UsePathStyle = assets.S3PathStyle
	})
	return NewWithClient(client, assets.S3Bucket, assets.S3Prefix, assets.BaseURL), nil
}

func NewWithClient(client Client, bucket, prefix, baseURL string) *Storage {
	return &Storage{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Storage) key(relativePath string) string {
	if s.prefix == "" {
		return relativePath
	}
	return s.prefix + "/" + relativePath
}

func (s *Storage) userPrefix(userId domain.UserId) string {
	return s.key(strconv.FormatInt(userId, 10) + "/")
}

// Prepare is a no-op, key prefixes need no creation.
func (s *Storage) Prepare(ctx context.Context, userId domain.UserId) error {
	return nil
}

func (s *Storage) Save(ctx context.Context, userId domain.UserId, frame int, data []byte) (string, error) {
	relativePath := path.Join(strconv.FormatInt(userId, 10), domain.FrameName(frame))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(relativePath)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put frame: %w", err)
	}
	return relativePath, nil
}

// RemoveUser deletes every object under the user prefix.
func (s *Storage) RemoveUser(ctx context.Context, userId domain.UserId) error {
	objects, err := s.list(ctx, s.userPrefix(userId))
	if err != nil {
		return err
	}

	keys := lo.Map(objects, func(o types.Object, _ int) types.ObjectIdentifier {
		return types.ObjectIdentifier{Key: o.Key}
	})
	for _, batch := range lo.Chunk(keys, deleteBatch) {
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete user objects: %w", err)
		}
		if len(out.Errors) > 0 {
			return fmt.Errorf("failed to delete %d user objects, first: %s", len(out.Errors), aws.ToString(out.Errors[0].Message))
		}
	}
	return nil
}

func (s *Storage) URL(relativePath string) string {
	return s.baseURL + "/" + strings.TrimLeft(relativePath, "/")
}

// WalkUsers groups stored objects by user id. The newest object of a user
// stands for the modification time of its directory.
func (s *Storage) WalkUsers(ctx context.Context) ([]service.AssetDir, error) {
	root := ""
	if s.prefix != "" {
		root = s.prefix + "/"
	}
	objects, err := s.list(ctx, root)
	if err != nil {
		return nil, err
	}

	dirs := make(map[domain.UserId]service.AssetDir)
	for _, o := range objects {
		rest := strings.TrimPrefix(aws.ToString(o.Key), root)
		idPart, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			continue
		}
		d := dirs[id]
		d.UserId = id
		if mod := aws.ToTime(o.LastModified); mod.After(d.ModTime) {
			d.ModTime = mod
		}
		dirs[id] = d
	}
	return lo.Values(dirs), nil
}

func (s *Storage) list(ctx context.Context, prefix string) ([]types.Object, error) {
	var objects []types.Object
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, page.Contents...)
	}
	return objects, nil
}
