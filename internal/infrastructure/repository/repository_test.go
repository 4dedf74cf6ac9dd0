package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hisabix/backend/internal/domain/billing"
	"github.com/hisabix/backend/internal/domain/ledger"
	"github.com/hisabix/backend/internal/infrastructure/eventlog"
	"github.com/hisabix/backend/internal/infrastructure/projection"
	"github.com/hisabix/backend/internal/infrastructure/readmodel"
	"github.com/hisabix/backend/internal/infrastructure/subscription"
)

func subscriptionMessage(revision int64) subscription.Message {
	return subscription.Message{ID: uuid.NewString(), Revision: revision}
}

func setupRepoDB(t *testing.T) (eventlog.Client, *eventlog.EventSerializer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	client := eventlog.NewGormClient(db)
	require.NoError(t, client.Migrate())
	require.NoError(t, readmodel.Migrate(db))

	serializer := eventlog.NewEventSerializer()
	projection.RegisterDomainEvents(serializer)
	return client, serializer, db
}

func TestInvoiceRepository_FullScenario(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewInvoiceRepository(client, serializer, db, zap.NewNop())
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	issueDate := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)

	number, err := repo.NextInvoiceNumber(ctx, tenantID, issueDate)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-10-15-000001", number)

	inv, err := billing.NewInvoice(tenantID, number, uuid.New(), uuid.New(), issueDate, userID)
	require.NoError(t, err)
	require.NoError(t, inv.AddLineItem("Consulting", decimal.NewFromInt(10), decimal.NewFromInt(1000), billing.VATStandard, userID))
	require.NoError(t, repo.Save(ctx, inv))

	loaded, err := repo.GetByID(ctx, tenantID, inv.AggregateID())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.GrandTotal.Equal(decimal.NewFromInt(11500)))

	mushak, err := repo.NextMushakNumber(ctx, tenantID, issueDate)
	require.NoError(t, err)
	require.NoError(t, loaded.Approve(userID, mushak))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.GetByID(ctx, tenantID, inv.AggregateID())
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusApproved, reloaded.Status)
	assert.Equal(t, "MUS-2024-000001", reloaded.MushakNumber)
}

func TestInvoiceRepository_SequenceIncrements(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewInvoiceRepository(client, serializer, db, zap.NewNop())
	ctx := context.Background()
	tenantID := uuid.New()
	date := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)

	first, err := repo.NextInvoiceNumber(ctx, tenantID, date)
	require.NoError(t, err)
	second, err := repo.NextInvoiceNumber(ctx, tenantID, date)
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-10-15-000001", first)
	assert.Equal(t, "INV-2024-10-15-000002", second)

	// The next day starts a fresh counter
	nextDay, err := repo.NextInvoiceNumber(ctx, tenantID, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-10-16-000001", nextDay)
}

func TestPaymentRepository_RoundTrip(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewPaymentRepository(client, serializer, db, zap.NewNop())
	ctx := context.Background()
	tenantID := uuid.New()

	number, err := repo.NextPaymentNumber(ctx, tenantID, time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "PMT-2024-10-16-000001", number)

	p, err := billing.NewPayment(tenantID, number, uuid.New(), uuid.New(),
		decimal.NewFromInt(11500), billing.PaymentMethodBankTransfer, "TXN-99", uuid.New())
	require.NoError(t, err)
	require.NoError(t, p.Complete(uuid.New()))
	require.NoError(t, repo.Save(ctx, p))

	loaded, err := repo.GetByID(ctx, tenantID, p.AggregateID())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, billing.PaymentStatusCompleted, loaded.Status)
}

func TestJournalEntryRepository_NumbersPerBook(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewJournalEntryRepository(client, serializer, db, zap.NewNop())
	ctx := context.Background()
	tenantID := uuid.New()
	date := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)

	general, err := repo.NextJournalNumber(ctx, tenantID, ledger.JournalGeneral, date)
	require.NoError(t, err)
	sales, err := repo.NextJournalNumber(ctx, tenantID, ledger.JournalSales, date)
	require.NoError(t, err)
	assert.Equal(t, "GJ-2024-10-000001", general)
	assert.Equal(t, "SJ-2024-10-000001", sales)

	je, err := ledger.NewJournalEntry(tenantID, general, ledger.JournalGeneral, date, "Rent", uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, je))

	loaded, err := repo.GetByID(ctx, tenantID, je.AggregateID())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, general, loaded.EntryNumber)
}

func TestRepository_TenantIsolation(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewChartOfAccountRepository(client, serializer, db, zap.NewNop())
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()

	a, err := ledger.NewChartOfAccount(tenantA, "1010", "Cash", ledger.AccountTypeAsset, nil, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, a))

	// The same aggregate ID under another tenant resolves to nothing
	other, err := repo.GetByID(ctx, tenantB, a.AggregateID())
	require.NoError(t, err)
	assert.Nil(t, other)

	exists, err := repo.Exists(ctx, tenantB, a.AggregateID())
	require.NoError(t, err)
	assert.False(t, exists)

	own, err := repo.GetByID(ctx, tenantA, a.AggregateID())
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, "1010", own.Code)
}

func TestChartOfAccountRepository_ReadModelGuards(t *testing.T) {
	client, serializer, db := setupRepoDB(t)
	repo := NewChartOfAccountRepository(client, serializer, db, zap.NewNop())
	handler := projection.NewAccountProjection(db, zap.NewNop())
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()
	userID := uuid.New()

	parent, err := ledger.NewChartOfAccount(tenantA, "1000", "Current Assets", ledger.AccountTypeAsset, nil, userID)
	require.NoError(t, err)
	parentID := parent.AggregateID()
	child, err := ledger.NewChartOfAccount(tenantA, "1010", "Cash", ledger.AccountTypeAsset, &parentID, userID)
	require.NoError(t, err)

	for revision, event := range parent.UncommittedEvents() {
		require.NoError(t, handler.Handle(ctx, event, subscriptionMessage(int64(revision))))
	}
	for revision, event := range child.UncommittedEvents() {
		require.NoError(t, handler.Handle(ctx, event, subscriptionMessage(int64(revision))))
	}

	exists, err := repo.ExistsByCode(ctx, tenantA, "1010")
	require.NoError(t, err)
	assert.True(t, exists)

	// Codes are per tenant
	exists, err = repo.ExistsByCode(ctx, tenantB, "1010")
	require.NoError(t, err)
	assert.False(t, exists)

	hasChildren, err := repo.HasActiveChildren(ctx, tenantA, parentID)
	require.NoError(t, err)
	assert.True(t, hasChildren)

	hasChildren, err = repo.HasActiveChildren(ctx, tenantA, child.AggregateID())
	require.NoError(t, err)
	assert.False(t, hasChildren)
}
