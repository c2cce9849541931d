package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/utils"
)

// S3API is the subset of the S3 client used by S3WorkflowStore.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3WorkflowStore keeps each workflow as the object <prefix><id>.json.
// This is NOT the default. Use only if configured explicitly.
type S3WorkflowStore struct {
	client S3API
	bucket string
	prefix string
}

var _ WorkflowStore = (*S3WorkflowStore)(nil)

// NewS3WorkflowStore loads the default AWS credential chain for region.
func NewS3WorkflowStore(ctx context.Context, bucket, region, prefix string) (*S3WorkflowStore, error) {
	if bucket == "" || region == "" {
		return nil, utils.Errorf("s3 workflow store requires bucket and region")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewS3WorkflowStoreWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewS3WorkflowStoreWithClient(client S3API, bucket, prefix string) *S3WorkflowStore {
	return &S3WorkflowStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3WorkflowStore) key(id string) string {
	return s.prefix + id + ".json"
}

func (s *S3WorkflowStore) Save(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	out, err := prepare(wf)
	if err != nil {
		return nil, err
	}
	data, err := encodeWorkflow(out)
	if err != nil {
		return nil, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(out.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(constants.ContentTypeJSON),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload workflow %s: %w", out.ID, err)
	}
	return out, nil
}

func (s *S3WorkflowStore) Get(ctx context.Context, id string) (*model.Workflow, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := s.read(ctx, s.key(id))
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return model.ParseWorkflow(data)
}

func (s *S3WorkflowStore) read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *S3WorkflowStore) List(ctx context.Context) ([]WorkflowSummary, error) {
	out := []WorkflowSummary{}
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rest := strings.TrimPrefix(key, s.prefix)
			if !strings.HasSuffix(rest, ".json") || strings.Contains(rest, "/") {
				continue
			}
			data, err := s.read(ctx, key)
			if err != nil {
				return nil, err
			}
			wf, err := model.ParseWorkflow(data)
			if err != nil {
				utils.WarnCtx(ctx, "skipping unreadable workflow object", "key", key, "error", err)
				continue
			}
			if wf.ID == "" {
				wf.ID = strings.TrimSuffix(rest, ".json")
			}
			out = append(out, summarize(wf))
		}
	}
	sortSummaries(out)
	return out, nil
}

// Delete checks for the object first because S3 deletes are idempotent.
func (s *S3WorkflowStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	key := s.key(id)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
		}
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
