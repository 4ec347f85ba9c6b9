// Package store persists contact and waitlist submissions in a single
// DynamoDB table. The partition key is the record class (CONTACT or
// WAITLIST) and the sort key is "<submittedAt>#<id>", so sort-key order
// is creation order and range queries never need a secondary index.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/forms-api/internal/submission"
)

const (
	pkContact  = "CONTACT"
	pkWaitlist = "WAITLIST"

	skTimeFormat = "2006-01-02T15:04:05Z"

	// DefaultListLimit bounds list queries when the caller does not.
	DefaultListLimit = 100
)

// DynamoAPI is the slice of the DynamoDB client the store uses.
// *dynamodb.Client satisfies it; tests substitute a fake.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store owns persistence identity for submissions: it assigns ids and
// keys; callers never fabricate them.
type Store struct {
	db    DynamoAPI
	table string
}

// New creates a Store backed by the given DynamoDB table.
func New(db DynamoAPI, table string) *Store {
	return &Store{db: db, table: table}
}

type contactItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	ID          string `dynamodbav:"ID"`
	Name        string `dynamodbav:"Name"`
	Email       string `dynamodbav:"Email"`
	Message     string `dynamodbav:"Message"`
	Status      string `dynamodbav:"Status"`
	SubmittedAt string `dynamodbav:"SubmittedAt"`
}

type waitlistItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	ID          string `dynamodbav:"ID"`
	Email       string `dynamodbav:"Email"`
	Name        string `dynamodbav:"Name,omitempty"`
	Position    int    `dynamodbav:"Position"`
	Status      string `dynamodbav:"Status"`
	SubmittedAt string `dynamodbav:"SubmittedAt"`
}

func sortKey(submittedAt time.Time, id string) string {
	return submittedAt.UTC().Format(skTimeFormat) + "#" + id
}

// CreateContact assigns a fresh id, persists the submission, and returns
// the authoritative record. Status defaults to "new" and SubmittedAt to
// now when unset.
func (s *Store) CreateContact(ctx context.Context, c submission.Contact) (*submission.Contact, error) {
	c.ID = submission.NewID()
	c.Email = submission.NormalizeEmail(c.Email)
	if c.Status == "" {
		c.Status = submission.ContactStatusNew
	}
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now().UTC()
	}

	item := contactItem{
		PK:          pkContact,
		SK:          sortKey(c.SubmittedAt, c.ID),
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Message:     c.Message,
		Status:      string(c.Status),
		SubmittedAt: c.SubmittedAt.UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, &submission.StoreError{Op: "marshal contact", Err: err}
	}

	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return nil, &submission.StoreError{Op: "put contact", Err: err}
	}

	return &c, nil
}

// GetContact looks up a contact submission by id. A miss returns
// (nil, nil); only backend failures are errors.
func (s *Store) GetContact(ctx context.Context, id string) (*submission.Contact, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		FilterExpression:       aws.String("ID = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkContact},
			":id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, &submission.StoreError{Op: "get contact", Err: err}
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item contactItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, &submission.StoreError{Op: "unmarshal contact", Err: err}
	}
	return contactFromItem(item)
}

// ListContacts returns contact submissions newest-first, optionally
// narrowed to one status. limit ≤ 0 means DefaultListLimit.
func (s *Store) ListContacts(ctx context.Context, status submission.ContactStatus, limit int) ([]submission.Contact, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkContact},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(int32(limit)),
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "Status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: string(status)}
	}

	result, err := s.db.Query(ctx, input)
	if err != nil {
		return nil, &submission.StoreError{Op: "list contacts", Err: err}
	}

	contacts := make([]submission.Contact, 0, len(result.Items))
	for _, raw := range result.Items {
		var item contactItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		c, err := contactFromItem(item)
		if err != nil {
			continue
		}
		contacts = append(contacts, *c)
	}
	return contacts, nil
}

// UpdateContactStatus moves a contact submission through its lifecycle.
// Returns (nil, nil) if the id does not exist.
func (s *Store) UpdateContactStatus(ctx context.Context, id string, status submission.ContactStatus) (*submission.Contact, error) {
	existing, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkContact},
			"SK": &types.AttributeValueMemberS{Value: sortKey(existing.SubmittedAt, existing.ID)},
		},
		UpdateExpression:         aws.String("SET #status = :status"),
		ExpressionAttributeNames: map[string]string{"#status": "Status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	}); err != nil {
		return nil, &submission.StoreError{Op: "update contact status", Err: err}
	}

	existing.Status = status
	return existing, nil
}

// CountWaitlist counts waitlist entries with the given status.
func (s *Store) CountWaitlist(ctx context.Context, status submission.WaitlistStatus) (int, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		KeyConditionExpression:   aws.String("PK = :pk"),
		FilterExpression:         aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{"#status": "Status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkWaitlist},
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, &submission.StoreError{Op: "count waitlist", Err: err}
	}
	return int(result.Count), nil
}

// CreateWaitlistEntry computes the next position (count of active entries
// + 1) and persists the signup. The count-then-put sequence is not
// atomic: two concurrent signups can share a position. Accepted; position
// is informational, never a uniqueness key.
func (s *Store) CreateWaitlistEntry(ctx context.Context, e submission.WaitlistEntry) (*submission.WaitlistEntry, error) {
	active, err := s.CountWaitlist(ctx, submission.WaitlistStatusActive)
	if err != nil {
		return nil, err
	}

	e.ID = submission.NewID()
	e.Email = submission.NormalizeEmail(e.Email)
	e.Position = active + 1
	if e.Status == "" {
		e.Status = submission.WaitlistStatusActive
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now().UTC()
	}

	item := waitlistItem{
		PK:          pkWaitlist,
		SK:          sortKey(e.SubmittedAt, e.ID),
		ID:          e.ID,
		Email:       e.Email,
		Name:        e.Name,
		Position:    e.Position,
		Status:      string(e.Status),
		SubmittedAt: e.SubmittedAt.UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, &submission.StoreError{Op: "marshal waitlist entry", Err: err}
	}

	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return nil, &submission.StoreError{Op: "put waitlist entry", Err: err}
	}

	return &e, nil
}

// FindWaitlistByEmail returns the earliest waitlist entry for a
// (normalized) email address, or (nil, nil) when none exists. Callers use
// it for the duplicate-signup check before creating a new entry.
func (s *Store) FindWaitlistByEmail(ctx context.Context, email string) (*submission.WaitlistEntry, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		FilterExpression:       aws.String("Email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":    &types.AttributeValueMemberS{Value: pkWaitlist},
			":email": &types.AttributeValueMemberS{Value: submission.NormalizeEmail(email)},
		},
	})
	if err != nil {
		return nil, &submission.StoreError{Op: "find waitlist by email", Err: err}
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item waitlistItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, &submission.StoreError{Op: "unmarshal waitlist entry", Err: err}
	}
	return waitlistFromItem(item)
}

// GetWaitlistEntry looks up a waitlist entry by id. A miss returns
// (nil, nil).
func (s *Store) GetWaitlistEntry(ctx context.Context, id string) (*submission.WaitlistEntry, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		FilterExpression:       aws.String("ID = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkWaitlist},
			":id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, &submission.StoreError{Op: "get waitlist entry", Err: err}
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item waitlistItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, &submission.StoreError{Op: "unmarshal waitlist entry", Err: err}
	}
	return waitlistFromItem(item)
}

// ListWaitlist returns waitlist entries in position (creation) order,
// optionally narrowed to one status. limit ≤ 0 means DefaultListLimit.
func (s *Store) ListWaitlist(ctx context.Context, status submission.WaitlistStatus, limit int) ([]submission.WaitlistEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkWaitlist},
		},
		ScanIndexForward: aws.Bool(true), // creation order = position order
		Limit:            aws.Int32(int32(limit)),
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "Status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: string(status)}
	}

	result, err := s.db.Query(ctx, input)
	if err != nil {
		return nil, &submission.StoreError{Op: "list waitlist", Err: err}
	}

	entries := make([]submission.WaitlistEntry, 0, len(result.Items))
	for _, raw := range result.Items {
		var item waitlistItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		e, err := waitlistFromItem(item)
		if err != nil {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// UpdateWaitlistStatus moves a waitlist entry through its lifecycle.
// Returns (nil, nil) if the id does not exist. Position never changes.
func (s *Store) UpdateWaitlistStatus(ctx context.Context, id string, status submission.WaitlistStatus) (*submission.WaitlistEntry, error) {
	existing, err := s.GetWaitlistEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if _, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pkWaitlist},
			"SK": &types.AttributeValueMemberS{Value: sortKey(existing.SubmittedAt, existing.ID)},
		},
		UpdateExpression:         aws.String("SET #status = :status"),
		ExpressionAttributeNames: map[string]string{"#status": "Status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	}); err != nil {
		return nil, &submission.StoreError{Op: "update waitlist status", Err: err}
	}

	existing.Status = status
	return existing, nil
}

func contactFromItem(item contactItem) (*submission.Contact, error) {
	submittedAt, err := time.Parse(time.RFC3339, item.SubmittedAt)
	if err != nil {
		return nil, &submission.StoreError{Op: "parse contact timestamp", Err: fmt.Errorf("item %s: %w", item.ID, err)}
	}
	return &submission.Contact{
		ID:          item.ID,
		Name:        item.Name,
		Email:       item.Email,
		Message:     item.Message,
		Status:      submission.ContactStatus(item.Status),
		SubmittedAt: submittedAt,
	}, nil
}

func waitlistFromItem(item waitlistItem) (*submission.WaitlistEntry, error) {
	submittedAt, err := time.Parse(time.RFC3339, item.SubmittedAt)
	if err != nil {
		return nil, &submission.StoreError{Op: "parse waitlist timestamp", Err: fmt.Errorf("item %s: %w", item.ID, err)}
	}
	return &submission.WaitlistEntry{
		ID:          item.ID,
		Email:       item.Email,
		Name:        item.Name,
		Position:    item.Position,
		Status:      submission.WaitlistStatus(item.Status),
		SubmittedAt: submittedAt,
	}, nil
}
