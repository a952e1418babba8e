package services

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
)

// LinearModel is a logistic model over normalised compatibility features.
//
//	{"version": "2026-10-01", "bias": -1.2, "weights": {"personality": 1.1, "interests": 2.0}}
type LinearModel struct {
	Version string             `json:"version"`
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// ModelSource fetches the current learned model.
type ModelSource interface {
	FetchModel(ctx context.Context) (*LinearModel, error)
}

// S3GetObjectAPI is the subset of the S3 client used by S3ModelSource.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ModelSource reads a LinearModel JSON object from S3.
type S3ModelSource struct {
	Client S3GetObjectAPI
	Bucket string
	Key    string
}

func NewS3ModelSource(cfg aws.Config, bucket, key string) *S3ModelSource {
	return &S3ModelSource{Client: s3.NewFromConfig(cfg), Bucket: bucket, Key: key}
}

func (s *S3ModelSource) FetchModel(ctx context.Context) (*LinearModel, error) {
	output, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get model s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer output.Body.Close()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model body: %w", err)
	}

	var model LinearModel
	if err := json.Unmarshal(body, &model); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(model.Weights) == 0 {
		return nil, fmt.Errorf("model s3://%s/%s has no weights", s.Bucket, s.Key)
	}
	return &model, nil
}
