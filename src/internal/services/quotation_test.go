package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

func createTestQuotation(t *testing.T, env *testEnv, svc *QuotationService) *models.Quotation {
	t.Helper()

	customers := NewCustomerService(env.resolver, env.dispatcher)
	customer, err := customers.Create("T1", CustomerInput{
		Code: "QCUST-" + generateDocumentNo("X"),
		Name: "Quotation Customer",
	})
	require.NoError(t, err)

	quotation, err := svc.Create("T1", QuotationInput{
		CustomerID: customer.ID,
		TaxRate:    10,
		Items: []QuotationItemInput{
			{Description: "Gold Ring", Quantity: 2, UnitPrice: 1000},
			{Description: "Silver Chain", Quantity: 1, UnitPrice: 500},
		},
	})
	require.NoError(t, err)
	return quotation
}

func TestQuotationCreate(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewQuotationService(env.resolver, env.dispatcher)

	t.Run("ComputesTotals", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)
		assert.Equal(t, models.QuotationStatusDraft, quotation.Status)
		assert.InDelta(t, 2500.0, quotation.SubTotal, 0.001)
		assert.InDelta(t, 250.0, quotation.TaxAmount, 0.001)
		assert.InDelta(t, 2750.0, quotation.GrandTotal, 0.001)
		assert.Len(t, quotation.Items, 2)
		require.NotNil(t, quotation.Customer)
	})

	t.Run("RequiresItems", func(t *testing.T) {
		customers := NewCustomerService(env.resolver, env.dispatcher)
		customer, err := customers.Create("T1", CustomerInput{Code: "QCUST-EMPTY", Name: "Empty"})
		require.NoError(t, err)

		_, err = svc.Create("T1", QuotationInput{CustomerID: customer.ID})
		assert.Error(t, err)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		_, err := svc.Create("T1", QuotationInput{
			Items: []QuotationItemInput{{Description: "X", Quantity: 1, UnitPrice: 1}},
		})
		assert.Error(t, err)
	})
}

func TestQuotationStatusTransitions(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewQuotationService(env.resolver, env.dispatcher)

	t.Run("DraftToSentToAccepted", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)

		sent, err := svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusSent)
		require.NoError(t, err)
		assert.Equal(t, models.QuotationStatusSent, sent.Status)

		accepted, err := svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.QuotationStatusAccepted, accepted.Status)
	})

	t.Run("DraftCannotBeAccepted", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)

		_, err := svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusAccepted)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot move quotation")
	})

	t.Run("AcceptedIsTerminal", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)
		_, err := svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusSent)
		require.NoError(t, err)
		_, err = svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusAccepted)
		require.NoError(t, err)

		_, err = svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusDraft)
		assert.Error(t, err)
	})

	t.Run("ListFilterByStatus", func(t *testing.T) {
		quotations, total, err := svc.List("T1", models.QuotationStatusAccepted, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, q := range quotations {
			assert.Equal(t, models.QuotationStatusAccepted, q.Status)
		}
	})
}

func TestQuotationConvertToInvoice(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewQuotationService(env.resolver, env.dispatcher)
	invoices := NewInvoiceService(env.resolver, env.dispatcher)

	accept := func(t *testing.T, quotation *models.Quotation) {
		t.Helper()
		_, err := svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusSent)
		require.NoError(t, err)
		_, err = svc.UpdateStatus("T1", quotation.ID, models.QuotationStatusAccepted)
		require.NoError(t, err)
	}

	t.Run("CopiesTotalsAndItems", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)
		accept(t, quotation)

		invoice, err := svc.ConvertToInvoice("T1", quotation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)
		assert.Equal(t, quotation.GrandTotal, invoice.GrandTotal)
		require.NotNil(t, invoice.QuotationID)
		assert.Equal(t, quotation.ID, *invoice.QuotationID)

		loaded, err := invoices.Get("T1", invoice.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Items, 2)
	})

	t.Run("OnlyAcceptedConverts", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)

		_, err := svc.ConvertToInvoice("T1", quotation.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only accepted quotations")
	})

	t.Run("SecondConversionConflicts", func(t *testing.T) {
		quotation := createTestQuotation(t, env, svc)
		accept(t, quotation)

		_, err := svc.ConvertToInvoice("T1", quotation.ID)
		require.NoError(t, err)

		_, err = svc.ConvertToInvoice("T1", quotation.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already converted")
	})
}

func TestInvoiceLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewInvoiceService(env.resolver, env.dispatcher)
	customers := NewCustomerService(env.resolver, env.dispatcher)

	customer, err := customers.Create("T1", CustomerInput{Code: "INV-CUST", Name: "Invoice Customer"})
	require.NoError(t, err)

	newInvoice := func(t *testing.T) *models.Invoice {
		t.Helper()
		invoice, err := svc.Create("T1", InvoiceInput{
			CustomerID: customer.ID,
			TaxRate:    5,
			Items:      []InvoiceItemInput{{Description: "Bangle", Quantity: 4, UnitPrice: 250}},
		})
		require.NoError(t, err)
		return invoice
	}

	t.Run("CreateComputesTotals", func(t *testing.T) {
		invoice := newInvoice(t)
		assert.InDelta(t, 1000.0, invoice.SubTotal, 0.001)
		assert.InDelta(t, 50.0, invoice.TaxAmount, 0.001)
		assert.InDelta(t, 1050.0, invoice.GrandTotal, 0.001)
	})

	t.Run("IssueThenPay", func(t *testing.T) {
		invoice := newInvoice(t)

		issued, err := svc.Issue("T1", invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusIssued, issued.Status)
		require.NotNil(t, issued.IssuedOn)

		paid, err := svc.MarkPaid("T1", invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
		require.NotNil(t, paid.PaidOn)
	})

	t.Run("CannotPayDraft", func(t *testing.T) {
		invoice := newInvoice(t)
		_, err := svc.MarkPaid("T1", invoice.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be issued")
	})

	t.Run("CancelIssued", func(t *testing.T) {
		invoice := newInvoice(t)
		_, err := svc.Issue("T1", invoice.ID)
		require.NoError(t, err)

		cancelled, err := svc.Cancel("T1", invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusCancelled, cancelled.Status)

		// Paid invoices cannot be cancelled
		paidInvoice := newInvoice(t)
		_, err = svc.Issue("T1", paidInvoice.ID)
		require.NoError(t, err)
		_, err = svc.MarkPaid("T1", paidInvoice.ID)
		require.NoError(t, err)
		_, err = svc.Cancel("T1", paidInvoice.ID)
		assert.Error(t, err)
	})
}
