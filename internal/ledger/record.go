package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/ledgerbook/internal/recordstore"
)

// billsSchema describes the bills container.
// Only billNumber is unique; the other indexes speed up point lookups.
var billsSchema = recordstore.Schema{
	Name:    "bills",
	Version: 1,
	Indexes: []recordstore.Index{
		{Field: "billNumber", Unique: true},
		{Field: "customerKey"},
		{Field: "date"},
		{Field: "transactionType"},
	},
}

// billRecord is the stored shape of a Bill.
type billRecord struct {
	BillNumber      int64           `json:"billNumber" validate:"gte=1"`
	CustomerKey     string          `json:"customerKey" validate:"required"`
	Date            string          `json:"date" validate:"datetime=2006-01-02"`
	Items           []itemRecord    `json:"items" validate:"dive"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TransactionType string          `json:"transactionType" validate:"oneof=Debit Credit"`
	Remarks         string          `json:"remarks,omitempty"`
}

type itemRecord struct {
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Kind      string          `json:"kind" validate:"oneof=Debit Credit"`
	Remarks   string          `json:"remarks,omitempty"`
}

func toRecord(b Bill) billRecord {
	items := make([]itemRecord, len(b.Items))
	for i, it := range b.Items {
		items[i] = itemRecord{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
			Kind:      string(it.Kind),
			Remarks:   it.Remarks,
		}
	}
	return billRecord{
		BillNumber:      b.BillNumber,
		CustomerKey:     b.CustomerKey,
		Date:            b.Date,
		Items:           items,
		TotalAmount:     b.TotalAmount,
		TransactionType: string(b.TransactionType),
		Remarks:         b.Remarks,
	}
}

func fromRecord(rec recordstore.Record[billRecord]) Bill {
	r := rec.Value
	items := make([]Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = Item{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
			Kind:      TransactionType(it.Kind),
			Remarks:   it.Remarks,
		}
	}
	return Bill{
		ID:              rec.ID,
		BillNumber:      r.BillNumber,
		CustomerKey:     r.CustomerKey,
		Date:            r.Date,
		Items:           items,
		TotalAmount:     r.TotalAmount,
		TransactionType: TransactionType(r.TransactionType),
		Remarks:         r.Remarks,
	}
}
