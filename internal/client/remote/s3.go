package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/fxamacker/cbor/v2"
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Config locates the bucket holding user records.
type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
	WriteRetries uint
}

// s3Object is the CBOR body of one user record object.
type s3Object struct {
	UserID string             `cbor:"1,keyasint"`
	Fields map[string]s3Field `cbor:"2,keyasint"`
}

type s3Field struct {
	Value   string `cbor:"1,keyasint"`
	Version int64  `cbor:"2,keyasint"`
}

// S3Store keeps one CBOR object per user. Writes are read-modify-write
// cycles guarded by If-Match on the ETag that was read, retried when
// another writer got there first.
type S3Store struct {
	api     objectAPI
	bucket  string
	prefix  string
	retries uint
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return newS3Store(api, cfg), nil
}

func newS3Store(api objectAPI, cfg S3Config) *S3Store {
	retries := cfg.WriteRetries
	if retries == 0 {
		retries = 5
	}
	return &S3Store{api: api, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/"), retries: retries}
}

func (s *S3Store) key(userID string) string {
	k := "users/" + url.PathEscape(userID) + ".cbor"
	if s.prefix != "" {
		k = s.prefix + "/" + k
	}
	return k
}

// read returns the stored record and its ETag, or nil and "" when absent.
func (s *S3Store) read(ctx context.Context, userID string) (*UserRecord, string, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", nil
		}
		return nil, "", mapS3Error(err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	var obj s3Object
	if err := cbor.Unmarshal(body, &obj); err != nil {
		return nil, "", fmt.Errorf("failed to decode user record: %w", err)
	}

	rec := &UserRecord{UserID: obj.UserID, Fields: make(map[string]FieldValue, len(obj.Fields))}
	for name, f := range obj.Fields {
		rec.Fields[name] = FieldValue{Value: f.Value, Version: f.Version}
	}
	return rec, aws.ToString(out.ETag), nil
}

func (s *S3Store) GetUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	rec, _, err := s.read(ctx, userID)
	return rec, err
}

func (s *S3Store) SetField(ctx context.Context, userID, field, value string, version int64) error {
	if err := validate(userID, field); err != nil {
		return err
	}

	return retry.Do(func() error {
		rec, etag, err := s.read(ctx, userID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &UserRecord{UserID: userID}
		}
		if !rec.apply(field, value, version) {
			return nil
		}

		obj := s3Object{UserID: userID, Fields: make(map[string]s3Field, len(rec.Fields))}
		for name, f := range rec.Fields {
			obj.Fields[name] = s3Field{Value: f.Value, Version: f.Version}
		}
		body, err := cbor.Marshal(obj)
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to encode user record: %w", err))
		}

		in := &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(userID)),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/cbor"),
		}
		if etag == "" {
			in.IfNoneMatch = aws.String("*")
		} else {
			in.IfMatch = aws.String(etag)
		}
		if _, err := s.api.PutObject(ctx, in); err != nil {
			if isPreconditionFailed(err) {
				return common.ErrConflict
			}
			return mapS3Error(err)
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(s.retries),
		retry.Delay(20*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, common.ErrConflict) }),
	)
}

func (s *S3Store) DeleteUserRecord(ctx context.Context, userID string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(userID)),
	})
	if err != nil && !isNotFound(err) {
		return mapS3Error(err)
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return mapS3Error(err)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

// mapS3Error keeps service errors as they are and turns everything else
// (DNS, connection refused, timeouts) into common.ErrorUnavailable.
func mapS3Error(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
		}
		return fmt.Errorf("s3 error: %w", err)
	}
	return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
}
