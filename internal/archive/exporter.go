// Package archive writes point-in-time snapshots of submissions to S3
// so they can be pulled into spreadsheets or downstream tooling.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/submission"
)

// S3API is the subset of the S3 client the exporter uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Lister reads the submissions to be exported. A zero status means all
// records regardless of status; a zero limit means the store default.
type Lister interface {
	ListContacts(ctx context.Context, status submission.ContactStatus, limit int) ([]submission.Contact, error)
	ListWaitlist(ctx context.Context, status submission.WaitlistStatus, limit int) ([]submission.WaitlistEntry, error)
}

// Exporter snapshots submissions into dated JSON objects in S3.
type Exporter struct {
	s3     S3API
	lister Lister
	bucket string
}

// NewExporter creates an exporter writing to the given bucket.
func NewExporter(client S3API, lister Lister, bucket string) *Exporter {
	return &Exporter{s3: client, lister: lister, bucket: bucket}
}

// Snapshot holds the keys written by a single export run.
type Snapshot struct {
	ContactsKey  string `json:"contacts_key"`
	WaitlistKey  string `json:"waitlist_key"`
	ContactCount int    `json:"contact_count"`
	WaitlistLen  int    `json:"waitlist_count"`
}

// ExportAll writes one JSON object per record class under a dated
// prefix, e.g. exports/2026/08/31/contacts.json.
func (e *Exporter) ExportAll(ctx context.Context, now time.Time) (*Snapshot, error) {
	prefix := fmt.Sprintf("exports/%s", now.UTC().Format("2006/01/02"))

	contacts, err := e.lister.ListContacts(ctx, "", exportLimit)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	waitlist, err := e.lister.ListWaitlist(ctx, "", exportLimit)
	if err != nil {
		return nil, fmt.Errorf("listing waitlist: %w", err)
	}

	snap := &Snapshot{
		ContactsKey:  prefix + "/contacts.json",
		WaitlistKey:  prefix + "/waitlist.json",
		ContactCount: len(contacts),
		WaitlistLen:  len(waitlist),
	}

	if err := e.put(ctx, snap.ContactsKey, contacts); err != nil {
		return nil, err
	}
	if err := e.put(ctx, snap.WaitlistKey, waitlist); err != nil {
		return nil, err
	}

	logger.Info("export complete",
		"bucket", e.bucket,
		"contacts", snap.ContactCount,
		"waitlist", snap.WaitlistLen)
	return snap, nil
}

// DynamoDB pages top out well below this; revisit if either table grows
// past a single export call.
const exportLimit = 5000

func (e *Exporter) put(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}
