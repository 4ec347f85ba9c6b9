package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/forms-api/internal/submission"
)

// fakeDynamo is a programmable DynamoAPI capturing all inputs.
type fakeDynamo struct {
	puts    []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	updates []*dynamodb.UpdateItemInput

	putErr    error
	queryFn   func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	updateErr error
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.queryFn != nil {
		return f.queryFn(in)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func marshalContact(t *testing.T, item contactItem) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	return av
}

func marshalWaitlist(t *testing.T, item waitlistItem) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	return av
}

func TestCreateContactAssignsIdentity(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	created, err := s.CreateContact(context.Background(), submission.Contact{
		Name:    "Jane Doe",
		Email:   "Jane@X.com",
		Message: "hi",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "jane@x.com", created.Email, "email is normalized to lowercase")
	assert.Equal(t, submission.ContactStatusNew, created.Status)
	assert.False(t, created.SubmittedAt.IsZero())

	require.Len(t, db.puts, 1)
	assert.Equal(t, "submissions", *db.puts[0].TableName)

	var item contactItem
	require.NoError(t, attributevalue.UnmarshalMap(db.puts[0].Item, &item))
	assert.Equal(t, "CONTACT", item.PK)
	assert.Contains(t, item.SK, created.ID)
	assert.Equal(t, "jane@x.com", item.Email)
	assert.Equal(t, "new", item.Status)
}

func TestCreateContactStoreError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("dynamo unavailable")}
	s := New(db, "submissions")

	_, err := s.CreateContact(context.Background(), submission.Contact{Email: "a@b.com"})
	require.Error(t, err)

	var se *submission.StoreError
	assert.True(t, errors.As(err, &se), "backend failures surface as StoreError")
}

func TestCreateWaitlistEntryPositionFromCount(t *testing.T) {
	db := &fakeDynamo{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			// The COUNT query for active entries.
			return &dynamodb.QueryOutput{Count: 5}, nil
		},
	}
	s := New(db, "submissions")

	created, err := s.CreateWaitlistEntry(context.Background(), submission.WaitlistEntry{
		Email: "Someone@Example.com",
		Name:  "Someone",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, created.Position, "position = count(active) + 1")
	assert.Equal(t, "someone@example.com", created.Email)
	assert.Equal(t, submission.WaitlistStatusActive, created.Status)

	// The count query must run before the write.
	require.Len(t, db.queries, 1)
	assert.Equal(t, types.SelectCount, db.queries[0].Select)
	require.Len(t, db.puts, 1)

	var item waitlistItem
	require.NoError(t, attributevalue.UnmarshalMap(db.puts[0].Item, &item))
	assert.Equal(t, "WAITLIST", item.PK)
	assert.Equal(t, 6, item.Position)
}

func TestCreateWaitlistEntryCountFailureBlocksWrite(t *testing.T) {
	db := &fakeDynamo{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return nil, errors.New("backend down")
		},
	}
	s := New(db, "submissions")

	_, err := s.CreateWaitlistEntry(context.Background(), submission.WaitlistEntry{Email: "a@b.com"})
	require.Error(t, err)
	assert.Empty(t, db.puts, "no write happens when the position count fails")
}

func TestFindWaitlistByEmail(t *testing.T) {
	entry := waitlistItem{
		PK: "WAITLIST", SK: "2026-08-30T10:00:00Z#abc",
		ID: "abc", Email: "jane@x.com", Position: 3,
		Status: "active", SubmittedAt: "2026-08-30T10:00:00Z",
	}
	db := &fakeDynamo{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{marshalWaitlist(t, entry)}}, nil
		},
	}
	s := New(db, "submissions")

	found, err := s.FindWaitlistByEmail(context.Background(), "JANE@X.COM")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "abc", found.ID)
	assert.Equal(t, 3, found.Position)

	// The lookup email is normalized before querying.
	require.Len(t, db.queries, 1)
	emailAttr := db.queries[0].ExpressionAttributeValues[":email"].(*types.AttributeValueMemberS)
	assert.Equal(t, "jane@x.com", emailAttr.Value)
}

func TestFindWaitlistByEmailMissIsNotAnError(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	found, err := s.FindWaitlistByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGetContactMissIsNotAnError(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	got, err := s.GetContact(context.Background(), "missing-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListContactsNewestFirstWithDefaults(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	_, err := s.ListContacts(context.Background(), "", 0)
	require.NoError(t, err)

	require.Len(t, db.queries, 1)
	q := db.queries[0]
	assert.False(t, *q.ScanIndexForward, "contacts list newest-first")
	assert.Equal(t, int32(DefaultListLimit), *q.Limit)
	assert.Nil(t, q.FilterExpression, "no status filter by default")
}

func TestListContactsStatusFilter(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	_, err := s.ListContacts(context.Background(), submission.ContactStatusNew, 25)
	require.NoError(t, err)

	q := db.queries[0]
	require.NotNil(t, q.FilterExpression)
	assert.Equal(t, "#status = :status", *q.FilterExpression)
	assert.Equal(t, int32(25), *q.Limit)
}

func TestListWaitlistPositionOrder(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	_, err := s.ListWaitlist(context.Background(), "", 0)
	require.NoError(t, err)

	q := db.queries[0]
	assert.True(t, *q.ScanIndexForward, "waitlist lists in creation (position) order")
}

func TestUpdateContactStatus(t *testing.T) {
	submittedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	existing := contactItem{
		PK: "CONTACT", SK: "2026-08-30T10:00:00Z#abc",
		ID: "abc", Name: "Jane", Email: "jane@x.com", Message: "hi",
		Status: "new", SubmittedAt: submittedAt.Format(time.RFC3339),
	}
	db := &fakeDynamo{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{marshalContact(t, existing)}}, nil
		},
	}
	s := New(db, "submissions")

	updated, err := s.UpdateContactStatus(context.Background(), "abc", submission.ContactStatusRead)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, submission.ContactStatusRead, updated.Status)

	require.Len(t, db.updates, 1)
	sk := db.updates[0].Key["SK"].(*types.AttributeValueMemberS)
	assert.Equal(t, "2026-08-30T10:00:00Z#abc", sk.Value)
}

func TestUpdateContactStatusMissing(t *testing.T) {
	db := &fakeDynamo{}
	s := New(db, "submissions")

	updated, err := s.UpdateContactStatus(context.Background(), "nope", submission.ContactStatusRead)
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Empty(t, db.updates)
}
