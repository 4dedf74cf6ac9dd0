package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabix/backend/internal/domain/shared"
)

func newDraftInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), "INV-2024-10-15-000001", uuid.New(), uuid.New(),
		time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), uuid.New())
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	tenantID := uuid.New()
	vendorID := uuid.New()
	customerID := uuid.New()
	issueDate := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)

	inv, err := NewInvoice(tenantID, "INV-2024-10-15-000001", vendorID, customerID, issueDate, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.Equal(t, tenantID, inv.TenantID())
	assert.Equal(t, vendorID, inv.VendorID)
	assert.Equal(t, customerID, inv.CustomerID)
	assert.Equal(t, int64(1), inv.Version())
	assert.Len(t, inv.UncommittedEvents(), 1)
	assert.IsType(t, &InvoiceCreatedEvent{}, inv.UncommittedEvents()[0])
}

func TestNewInvoice_Validation(t *testing.T) {
	issueDate := time.Now()

	tests := []struct {
		name    string
		run     func() error
		wantErr string
	}{
		{
			name: "empty tenant",
			run: func() error {
				_, err := NewInvoice(uuid.Nil, "INV-1", uuid.New(), uuid.New(), issueDate, uuid.New())
				return err
			},
			wantErr: "INVALID_TENANT",
		},
		{
			name: "empty number",
			run: func() error {
				_, err := NewInvoice(uuid.New(), "", uuid.New(), uuid.New(), issueDate, uuid.New())
				return err
			},
			wantErr: "INVALID_INVOICE_NUMBER",
		},
		{
			name: "missing vendor",
			run: func() error {
				_, err := NewInvoice(uuid.New(), "INV-1", uuid.Nil, uuid.New(), issueDate, uuid.New())
				return err
			},
			wantErr: "INVALID_PARTY",
		},
		{
			name: "zero issue date",
			run: func() error {
				_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), uuid.New(), time.Time{}, uuid.New())
				return err
			},
			wantErr: "INVALID_ISSUE_DATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.wantErr, domainErr.Code)
		})
	}
}

// TestInvoice_FullLifecycle walks the representative scenario: create,
// add a standard-rated line, approve with a mushak number, then verify
// that cancel is rejected once approved state advanced to paid.
func TestInvoice_FullLifecycle(t *testing.T) {
	inv := newDraftInvoice(t)
	approver := uuid.New()

	err := inv.AddLineItem("Industrial pump", decimal.NewFromInt(10), decimal.NewFromInt(1000), VATStandard, uuid.New())
	require.NoError(t, err)

	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(10000)), "subtotal = %s", inv.Subtotal)
	assert.True(t, inv.VATAmount.Equal(decimal.NewFromInt(1500)), "vat = %s", inv.VATAmount)
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(11500)), "grand = %s", inv.GrandTotal)

	err = inv.Approve(approver, "MUS-2024-10-000042")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusApproved, inv.Status)
	assert.Equal(t, "MUS-2024-10-000042", inv.MushakNumber)
	require.NotNil(t, inv.ApprovedBy)
	assert.Equal(t, approver, *inv.ApprovedBy)

	err = inv.MarkPaid("TXN-889900")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)

	err = inv.Cancel(uuid.New(), "too late")
	assert.ErrorIs(t, err, ErrInvalidInvoiceStatus)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)

	// one event per transition
	assert.Len(t, inv.UncommittedEvents(), 4)
	assert.Equal(t, int64(4), inv.Version())
}

func TestInvoice_ApproveOnlyFromDraft(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLineItem("Service", decimal.NewFromInt(1), decimal.NewFromInt(500), VATExempt, uuid.New()))
	require.NoError(t, inv.Approve(uuid.New(), "MUS-1"))

	err := inv.Approve(uuid.New(), "MUS-2")
	assert.ErrorIs(t, err, ErrInvalidInvoiceStatus)
}

func TestInvoice_ApproveRequiresLines(t *testing.T) {
	inv := newDraftInvoice(t)
	err := inv.Approve(uuid.New(), "MUS-1")
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_INVOICE", domainErr.Code)
}

func TestInvoice_CancelFromDraftAndApproved(t *testing.T) {
	draft := newDraftInvoice(t)
	require.NoError(t, draft.Cancel(uuid.New(), "customer withdrew"))
	assert.Equal(t, InvoiceStatusCancelled, draft.Status)
	assert.Equal(t, "customer withdrew", draft.CancelReason)

	approved := newDraftInvoice(t)
	require.NoError(t, approved.AddLineItem("Goods", decimal.NewFromInt(2), decimal.NewFromInt(100), VATStandard, uuid.New()))
	require.NoError(t, approved.Approve(uuid.New(), "MUS-9"))
	require.NoError(t, approved.Cancel(uuid.New(), "dispute"))
	assert.Equal(t, InvoiceStatusCancelled, approved.Status)

	err := approved.Cancel(uuid.New(), "again")
	assert.ErrorIs(t, err, ErrInvalidInvoiceStatus)
}

func TestInvoice_AddLineItemRejectedAfterApproval(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLineItem("Goods", decimal.NewFromInt(1), decimal.NewFromInt(100), VATStandard, uuid.New()))
	require.NoError(t, inv.Approve(uuid.New(), "MUS-1"))

	err := inv.AddLineItem("More goods", decimal.NewFromInt(1), decimal.NewFromInt(100), VATStandard, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidInvoiceStatus)
}

func TestInvoice_RemoveLineItem(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLineItem("Keep", decimal.NewFromInt(1), decimal.NewFromInt(100), VATStandard, uuid.New()))
	require.NoError(t, inv.AddLineItem("Drop", decimal.NewFromInt(1), decimal.NewFromInt(200), VATStandard, uuid.New()))

	dropID := inv.Lines[1].LineID
	require.NoError(t, inv.RemoveLineItem(dropID, uuid.New()))

	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "Keep", inv.Lines[0].Description)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(100)))

	err := inv.RemoveLineItem(dropID, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "LINE_ITEM_NOT_FOUND", domainErr.Code)
}

func TestInvoice_VATCategories(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLineItem("Standard", decimal.NewFromInt(1), decimal.NewFromInt(1000), VATStandard, uuid.New()))
	require.NoError(t, inv.AddLineItem("Reduced", decimal.NewFromInt(1), decimal.NewFromInt(1000), VATReduced, uuid.New()))
	require.NoError(t, inv.AddLineItem("Zero", decimal.NewFromInt(1), decimal.NewFromInt(1000), VATZero, uuid.New()))
	require.NoError(t, inv.AddLineItem("Exempt", decimal.NewFromInt(1), decimal.NewFromInt(1000), VATExempt, uuid.New()))

	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(4000)))
	assert.True(t, inv.VATAmount.Equal(decimal.NewFromFloat(225)), "vat = %s", inv.VATAmount) // 150 + 75
	assert.True(t, inv.GrandTotal.Equal(decimal.NewFromInt(4225)))
}

func TestInvoice_ReplayRebuildsIdenticalState(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.AddLineItem("Goods", decimal.NewFromInt(10), decimal.NewFromInt(1000), VATStandard, uuid.New()))
	require.NoError(t, inv.Approve(uuid.New(), "MUS-77"))

	history := inv.UncommittedEvents()

	replayed := &Invoice{}
	shared.LoadFromHistory(replayed, history)

	assert.Equal(t, inv.AggregateID(), replayed.AggregateID())
	assert.Equal(t, inv.TenantID(), replayed.TenantID())
	assert.Equal(t, inv.Status, replayed.Status)
	assert.Equal(t, inv.MushakNumber, replayed.MushakNumber)
	assert.True(t, inv.GrandTotal.Equal(replayed.GrandTotal))
	assert.Equal(t, inv.Version(), replayed.Version())
	assert.Empty(t, replayed.UncommittedEvents())
}
