package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabix/backend/internal/domain/shared"
)

func newDraftEntry(t *testing.T) *JournalEntry {
	t.Helper()
	je, err := NewJournalEntry(uuid.New(), "GJ-2024-10-000001", JournalGeneral,
		time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), "Office rent", uuid.New())
	require.NoError(t, err)
	return je
}

func TestJournalType_IsValid(t *testing.T) {
	valid := []JournalType{
		JournalGeneral, JournalSales, JournalPurchase, JournalCashReceipt,
		JournalCashPayment, JournalAdjusting, JournalReversing, JournalClosing, JournalOpeningOther,
	}
	for _, jt := range valid {
		assert.True(t, jt.IsValid(), "expected %s to be valid", jt)
		assert.Equal(t, string(jt), jt.Prefix())
	}
	assert.False(t, JournalType("XX").IsValid())
}

func TestNewJournalEntry_Validation(t *testing.T) {
	var domainErr *shared.DomainError

	_, err := NewJournalEntry(uuid.Nil, "GJ-1", JournalGeneral, time.Now(), "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TENANT", domainErr.Code)

	_, err = NewJournalEntry(uuid.New(), "", JournalGeneral, time.Now(), "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ENTRY_NUMBER", domainErr.Code)

	_, err = NewJournalEntry(uuid.New(), "GJ-1", JournalType("XX"), time.Now(), "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_JOURNAL_TYPE", domainErr.Code)

	_, err = NewJournalEntry(uuid.New(), "GJ-1", JournalGeneral, time.Time{}, "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ENTRY_DATE", domainErr.Code)
}

func TestJournalEntry_AddLine(t *testing.T) {
	je := newDraftEntry(t)
	userID := uuid.New()

	require.NoError(t, je.AddLine(uuid.New(), "6100", decimal.NewFromInt(5000), decimal.Zero, "rent", userID))
	require.NoError(t, je.AddLine(uuid.New(), "1010", decimal.Zero, decimal.NewFromInt(5000), "", userID))

	assert.Len(t, je.Lines, 2)
	assert.True(t, je.TotalDebits().Equal(decimal.NewFromInt(5000)))
	assert.True(t, je.TotalCredits().Equal(decimal.NewFromInt(5000)))
}

func TestJournalEntry_AddLine_ExactlyOneSide(t *testing.T) {
	je := newDraftEntry(t)
	var domainErr *shared.DomainError

	err := je.AddLine(uuid.New(), "6100", decimal.NewFromInt(100), decimal.NewFromInt(100), "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_LINE", domainErr.Code)

	err = je.AddLine(uuid.New(), "6100", decimal.Zero, decimal.Zero, "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_LINE", domainErr.Code)

	err = je.AddLine(uuid.New(), "6100", decimal.NewFromInt(-10), decimal.Zero, "", uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_LINE", domainErr.Code)
}

func TestJournalEntry_Post(t *testing.T) {
	je := newDraftEntry(t)
	userID := uuid.New()

	require.NoError(t, je.AddLine(uuid.New(), "6100", decimal.NewFromInt(5000), decimal.Zero, "", userID))
	require.NoError(t, je.AddLine(uuid.New(), "1010", decimal.Zero, decimal.NewFromInt(5000), "", userID))
	require.NoError(t, je.Post(userID))

	assert.Equal(t, JournalEntryStatusPosted, je.Status)
	require.NotNil(t, je.PostedBy)
	assert.Equal(t, userID, *je.PostedBy)
	assert.NotNil(t, je.PostedAt)

	err := je.AddLine(uuid.New(), "2100", decimal.NewFromInt(1), decimal.Zero, "", userID)
	assert.ErrorIs(t, err, ErrInvalidJournalStatus)
	err = je.Post(userID)
	assert.ErrorIs(t, err, ErrInvalidJournalStatus)
}

func TestJournalEntry_Post_Unbalanced(t *testing.T) {
	je := newDraftEntry(t)
	userID := uuid.New()

	require.NoError(t, je.AddLine(uuid.New(), "6100", decimal.NewFromInt(5000), decimal.Zero, "", userID))
	require.NoError(t, je.AddLine(uuid.New(), "1010", decimal.Zero, decimal.NewFromInt(4999), "", userID))

	err := je.Post(userID)
	assert.ErrorIs(t, err, ErrUnbalancedEntry)
}

func TestJournalEntry_Post_NeedsTwoLines(t *testing.T) {
	je := newDraftEntry(t)
	var domainErr *shared.DomainError

	err := je.Post(uuid.New())
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ENTRY", domainErr.Code)
}

func TestJournalEntry_Reverse(t *testing.T) {
	je := newDraftEntry(t)
	userID := uuid.New()

	err := je.Reverse(userID, uuid.New(), "wrong period")
	assert.ErrorIs(t, err, ErrInvalidJournalStatus)

	require.NoError(t, je.AddLine(uuid.New(), "6100", decimal.NewFromInt(5000), decimal.Zero, "", userID))
	require.NoError(t, je.AddLine(uuid.New(), "1010", decimal.Zero, decimal.NewFromInt(5000), "", userID))
	require.NoError(t, je.Post(userID))

	reversalID := uuid.New()
	require.NoError(t, je.Reverse(userID, reversalID, "wrong period"))
	assert.Equal(t, JournalEntryStatusReversed, je.Status)
	assert.Equal(t, reversalID, je.ReversalOf)

	err = je.Reverse(userID, uuid.New(), "again")
	assert.ErrorIs(t, err, ErrInvalidJournalStatus)
}

func TestJournalEntry_ReplayRebuildsIdenticalState(t *testing.T) {
	je := newDraftEntry(t)
	userID := uuid.New()
	require.NoError(t, je.AddLine(uuid.New(), "6100", decimal.NewFromInt(5000), decimal.Zero, "", userID))
	require.NoError(t, je.AddLine(uuid.New(), "1010", decimal.Zero, decimal.NewFromInt(5000), "", userID))
	require.NoError(t, je.Post(userID))

	replayed := &JournalEntry{}
	shared.LoadFromHistory(replayed, je.UncommittedEvents())

	assert.Equal(t, je.AggregateID(), replayed.AggregateID())
	assert.Equal(t, je.TenantID(), replayed.TenantID())
	assert.Equal(t, je.Status, replayed.Status)
	assert.Len(t, replayed.Lines, 2)
	assert.True(t, je.TotalDebits().Equal(replayed.TotalDebits()))
	assert.Equal(t, je.Version(), replayed.Version())
	assert.Empty(t, replayed.UncommittedEvents())
}
