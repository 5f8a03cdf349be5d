package settlement

import (
	"testing"
	"time"

	"github.com/haulbridge/freightex-api/internal/types"
)

func TestProcessor_StampsActiveCycleInvoicesOnce(t *testing.T) {
	db := newTestDB(t)
	processor := NewProcessor(NewDatabase(db))

	parent := types.ContractInvoice{
		InvoiceID:   "INV_PARENT",
		ContractID:  "CTR_1",
		Side:        types.InvoiceSideShipper,
		TotalAmount: d("300.00"),
		Outstanding: d("300.00"),
		DueDate:     day(2024, time.March, 31),
		PaymentTerm: "EOM",
		Status:      types.InvoiceStatusPending,
	}
	seed := []interface{}{
		&parent,
		// Installment due at the end of the running EOM cycle.
		&types.InterimInvoice{
			InvoiceID:         "INV_ACTIVE",
			ContractInvoiceID: parent.InvoiceID,
			Side:              types.InvoiceSideShipper,
			Amount:            d("150.00"),
			Outstanding:       d("150.00"),
			DueDate:           day(2024, time.March, 31),
			Status:            types.InvoiceStatusPending,
		},
		// Installment belonging to a later cycle.
		&types.InterimInvoice{
			InvoiceID:         "INV_FUTURE",
			ContractInvoiceID: parent.InvoiceID,
			Side:              types.InvoiceSideShipper,
			Amount:            d("150.00"),
			Outstanding:       d("150.00"),
			DueDate:           day(2024, time.April, 30),
			Status:            types.InvoiceStatusPending,
		},
		// Standalone spot invoice inside the running NET_15 cycle.
		&types.ShipmentInvoice{
			InvoiceID:   "INV_SPOT",
			ShipmentID:  "SHP_1",
			Side:        types.InvoiceSideShipper,
			Amount:      d("100.00"),
			Outstanding: d("100.00"),
			DueDate:     day(2024, time.March, 15),
			PaymentTerm: "NET_15",
			Status:      types.InvoiceStatusPending,
		},
		// Carrier-side invoices never enter the shipper statement.
		&types.ShipmentInvoice{
			InvoiceID:   "INV_CARRIER",
			ShipmentID:  "SHP_1",
			Side:        types.InvoiceSideCarrier,
			Amount:      d("90.00"),
			Outstanding: d("90.00"),
			DueDate:     day(2024, time.March, 15),
			PaymentTerm: "NET_15",
			Status:      types.InvoiceStatusPending,
		},
	}
	for _, record := range seed {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("failed to seed %T: %v", record, err)
		}
	}

	now := day(2024, time.March, 10)
	if err := processor.processDueInvoices(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertStamped := func(table interface{}, invoiceID string, want bool) {
		t.Helper()
		var billedAt *time.Time
		switch table.(type) {
		case *types.InterimInvoice:
			var inv types.InterimInvoice
			db.Where("invoice_id = ?", invoiceID).First(&inv)
			billedAt = inv.BilledAt
		case *types.ShipmentInvoice:
			var inv types.ShipmentInvoice
			db.Where("invoice_id = ?", invoiceID).First(&inv)
			billedAt = inv.BilledAt
		}
		if want && billedAt == nil {
			t.Errorf("%s: expected a billing stamp", invoiceID)
		}
		if !want && billedAt != nil {
			t.Errorf("%s: must not be stamped", invoiceID)
		}
	}

	assertStamped(&types.InterimInvoice{}, "INV_ACTIVE", true)
	assertStamped(&types.InterimInvoice{}, "INV_FUTURE", false)
	assertStamped(&types.ShipmentInvoice{}, "INV_SPOT", true)
	assertStamped(&types.ShipmentInvoice{}, "INV_CARRIER", false)

	// A second pass must not restamp: the first stamp is preserved.
	var first types.InterimInvoice
	db.Where("invoice_id = ?", "INV_ACTIVE").First(&first)
	if err := processor.processDueInvoices(day(2024, time.March, 20)); err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	var second types.InterimInvoice
	db.Where("invoice_id = ?", "INV_ACTIVE").First(&second)
	if first.BilledAt == nil || second.BilledAt == nil || !second.BilledAt.Equal(*first.BilledAt) {
		t.Errorf("billing stamp changed between passes: %v -> %v", first.BilledAt, second.BilledAt)
	}
}
