package cli

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/ledger"
)

// Output shapes. Amounts are fixed two-decimal strings so JSON consumers
// never see float rounding.

type itemView struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  string `json:"quantity"`
	LineTotal string `json:"line_total"`
	Kind      string `json:"kind"`
}

type billView struct {
	ID           int64      `json:"id"`
	BillNumber   int64      `json:"bill_number"`
	CustomerKey  string     `json:"customer_key"`
	CustomerName string     `json:"customer_name"`
	Date         string     `json:"date"`
	Type         string     `json:"type"`
	Items        []itemView `json:"items"`
	Total        string     `json:"total"`
	Remarks      string     `json:"remarks,omitempty"`
}

func newBillView(b ledger.Bill, customers *ledger.Registry) billView {
	c, _ := customers.Lookup(b.CustomerKey)
	return billView{
		ID:           b.ID,
		BillNumber:   b.BillNumber,
		CustomerKey:  b.CustomerKey,
		CustomerName: c.Name,
		Date:         b.Date,
		Type:         string(b.TransactionType),
		Items: lo.Map(b.Items, func(it ledger.Item, _ int) itemView {
			return itemView{
				Name:      it.Name,
				UnitPrice: it.UnitPrice.StringFixed(2),
				Quantity:  it.Quantity.String(),
				LineTotal: it.LineTotal.StringFixed(2),
				Kind:      string(it.Kind),
			}
		}),
		Total:   b.TotalAmount.StringFixed(2),
		Remarks: b.Remarks,
	}
}

const itemRow = "%-24s %10s %8s %12s\n"

func (v billView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Bill %d\n", v.BillNumber)
	fmt.Fprintf(w, "Date:     %s\n", v.Date)
	fmt.Fprintf(w, "Customer: %s (%s)\n", v.CustomerName, v.CustomerKey)
	fmt.Fprintf(w, "Type:     %s\n", v.Type)
	if v.Remarks != "" {
		fmt.Fprintf(w, "Remarks:  %s\n", v.Remarks)
	}
	fmt.Fprintf(w, itemRow, "Item", "Price", "Qty", "Amount")
	for _, it := range v.Items {
		fmt.Fprintf(w, itemRow, it.Name, it.UnitPrice, it.Quantity, it.LineTotal)
	}
	fmt.Fprintf(w, itemRow, "Total", "", "", v.Total)
}

type billListView struct {
	Bills []billView `json:"bills"`
	Count int        `json:"count"`
	Total string     `json:"total"`
}

const billListRow = "%6s  %-10s  %-8s  %-6s  %12s\n"

func (v billListView) RenderText(w io.Writer) {
	if len(v.Bills) == 0 {
		fmt.Fprintln(w, "No bills found.")
		return
	}
	fmt.Fprintf(w, billListRow, "Number", "Date", "Customer", "Type", "Amount")
	for _, b := range v.Bills {
		fmt.Fprintf(w, billListRow, fmt.Sprint(b.BillNumber), b.Date, b.CustomerKey, b.Type, b.Total)
	}
	fmt.Fprintf(w, "%d bills, total %s\n", v.Count, v.Total)
}

type totalView struct {
	Total string `json:"total"`
}

func (v totalView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Total: %s\n", v.Total)
}

type deleteView struct {
	BillNumber int64 `json:"bill_number"`
	Deleted    bool  `json:"deleted"`
}

func (v deleteView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Deleted bill %d\n", v.BillNumber)
}

type nextView struct {
	BillNumber int64 `json:"bill_number"`
}

func (v nextView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Next bill number: %d\n", v.BillNumber)
}

type statementEntryView struct {
	Date        string `json:"date"`
	Particulars string `json:"particulars"`
	Type        string `json:"type"`
	BillNumber  int64  `json:"bill_number"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
}

type statementView struct {
	CustomerKey    string               `json:"customer_key"`
	CustomerName   string               `json:"customer_name"`
	Address        string               `json:"address,omitempty"`
	StartDate      string               `json:"start_date,omitempty"`
	EndDate        string               `json:"end_date,omitempty"`
	Entries        []statementEntryView `json:"entries"`
	TotalDebit     string               `json:"total_debit"`
	TotalCredit    string               `json:"total_credit"`
	ClosingBalance string               `json:"closing_balance"`
	BalanceType    string               `json:"balance_type"`
}

func newStatementView(st ledger.Statement) statementView {
	return statementView{
		CustomerKey:  st.Customer.Key,
		CustomerName: st.Customer.Name,
		Address:      st.Customer.Address,
		StartDate:    st.StartDate,
		EndDate:      st.EndDate,
		Entries: lo.Map(st.Entries, func(e ledger.StatementEntry, _ int) statementEntryView {
			v := statementEntryView{
				Date:        e.Date,
				Particulars: e.Particulars,
				Type:        string(e.Type),
				BillNumber:  e.BillNumber,
			}
			if e.Type == ledger.Debit {
				v.Debit = e.Debit.StringFixed(2)
			} else {
				v.Credit = e.Credit.StringFixed(2)
			}
			return v
		}),
		TotalDebit:     st.TotalDebit.StringFixed(2),
		TotalCredit:    st.TotalCredit.StringFixed(2),
		ClosingBalance: st.ClosingBalance.StringFixed(2),
		BalanceType:    string(st.BalanceType),
	}
}

const statementRow = "%-10s  %-20s  %-6s  %6s  %12s  %12s\n"

func (v statementView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Statement for %s (%s)\n", v.CustomerName, v.CustomerKey)
	if v.Address != "" {
		fmt.Fprintln(w, v.Address)
	}
	fmt.Fprintf(w, "Period: %s to %s\n", lo.Ternary(v.StartDate != "", v.StartDate, "start"), lo.Ternary(v.EndDate != "", v.EndDate, "end"))
	fmt.Fprintf(w, statementRow, "Date", "Particulars", "Type", "Bill", "Debit", "Credit")
	for _, e := range v.Entries {
		fmt.Fprintf(w, statementRow, e.Date, e.Particulars, e.Type, fmt.Sprint(e.BillNumber), e.Debit, e.Credit)
	}
	fmt.Fprintf(w, statementRow, "Total", "", "", "", v.TotalDebit, v.TotalCredit)
	fmt.Fprintf(w, "Closing balance: %s %s\n", v.ClosingBalance, v.BalanceType)
}

type productView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productListView struct {
	Products []productView `json:"products"`
}

func newProductListView(products []catalog.Product) productListView {
	return productListView{Products: lo.Map(products, func(p catalog.Product, _ int) productView {
		return productView{ID: p.ID, Name: p.Name}
	})}
}

func (v productListView) RenderText(w io.Writer) {
	if len(v.Products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	for _, p := range v.Products {
		fmt.Fprintln(w, p.Name)
	}
}

func (v productView) RenderText(w io.Writer) {
	fmt.Fprintf(w, "Added product %q\n", v.Name)
}

type customerListView struct {
	Customers []ledger.Customer `json:"customers"`
}

const customerRow = "%-4s  %-20s  %s\n"

func (v customerListView) RenderText(w io.Writer) {
	fmt.Fprintf(w, customerRow, "Key", "Name", "Address")
	for _, c := range v.Customers {
		fmt.Fprintf(w, customerRow, c.Key, c.Name, c.Address)
	}
}

type seedView struct {
	Seeded int `json:"seeded"`
	Total  int `json:"total"`
}

func (v seedView) RenderText(w io.Writer) {
	if v.Seeded == 0 {
		fmt.Fprintf(w, "Catalog already populated (%d products)\n", v.Total)
		return
	}
	fmt.Fprintf(w, "Seeded %d products\n", v.Seeded)
}
