package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/jkcommunity/jkbot/internal/domain/ledger"
	"github.com/jkcommunity/jkbot/internal/domain/winners"
)

// ObjectPutter is the part of the S3 client the exporter uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client for AWS or, with an endpoint, any
// S3-compatible store.
func NewS3Client(ctx context.Context, endpoint, region, key, secret string) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load S3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type ExportedStanding struct {
	Rank   int    `json:"rank"`
	UserID int64  `json:"user_id"`
	Handle string `json:"handle"`
	Points int64  `json:"points"`
}

// LeaderboardExport is the JSON document written for a closed month.
type LeaderboardExport struct {
	ExportID   uuid.UUID          `json:"export_id"`
	MonthStart string             `json:"month_start"`
	Winner     *ExportedStanding  `json:"winner,omitempty"`
	Standings  []ExportedStanding `json:"standings"`
	ExportedAt time.Time          `json:"exported_at"`
}

// ArchiveExporter writes monthly leaderboards to object storage.
type ArchiveExporter struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

func NewArchiveExporter(client ObjectPutter, bucket, prefix string) *ArchiveExporter {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ArchiveExporter{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Key is the object key of a month's export, e.g. "leaderboards/2024-02.json".
func (e *ArchiveExporter) Key(monthStart string) string {
	return e.prefix + strings.TrimSuffix(monthStart, "-01") + ".json"
}

func (e *ArchiveExporter) Export(ctx context.Context, monthStart string, winner *winners.Winner, standings []ledger.Standing) (string, error) {
	doc := LeaderboardExport{
		ExportID:   uuid.New(),
		MonthStart: monthStart,
		Standings:  make([]ExportedStanding, len(standings)),
		ExportedAt: e.now().UTC(),
	}
	if winner != nil {
		doc.Winner = &ExportedStanding{Rank: 1, UserID: winner.UserID, Handle: winner.Handle, Points: winner.Points}
	}
	for i, s := range standings {
		doc.Standings[i] = ExportedStanding{Rank: i + 1, UserID: s.UserID, Handle: s.Handle, Points: s.Points}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	key := e.Key(monthStart)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	slog.Info("Leaderboard exported",
		slog.String("type", "sys"),
		slog.String("bucket", e.bucket),
		slog.String("key", key),
		slog.Int("entries", len(standings)),
		slog.String("export_id", doc.ExportID.String()),
	)
	return key, nil
}
