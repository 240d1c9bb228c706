// Package draft reads bill drafts from YAML or CUE files.
//
// Every draft is unified with the embedded #Draft schema before it is
// decoded, so structural problems (unknown fields, missing items on a
// debit, a non-positive credit amount) are reported with file positions
// instead of surfacing later as ledger validation errors.
package draft

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/roach88/ledgerbook/internal/ledger"
)

//go:embed schema.cue
var schemaCUE string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidDraft is returned when a draft does not satisfy the schema.
	ErrInvalidDraft = errors.New("invalid draft")

	// ErrUnsupportedFormat is returned for file extensions other than
	// .yaml, .yml and .cue.
	ErrUnsupportedFormat = errors.New("unsupported draft format")
)

type fileItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type fileDraft struct {
	Customer string          `json:"customer"`
	Date     string          `json:"date"`
	Type     string          `json:"type"`
	Remarks  string          `json:"remarks"`
	Amount   decimal.Decimal `json:"amount"`
	Items    []fileItem      `json:"items"`
}

// Load reads the draft at path. The format follows the file extension.
func Load(path string) (ledger.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ledger.Draft{}, errors.Wrapf(err, "read draft %s", path)
	}
	return Parse(path, data)
}

// Parse decodes a draft from data. filename selects the format and is used
// in error positions.
func Parse(filename string, data []byte) (ledger.Draft, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ledger.Draft{}, errors.Wrap(err, "compile draft schema")
	}

	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return ledger.Draft{}, invalid(err)
		}
		v = ctx.BuildFile(f)
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return ledger.Draft{}, errors.Wrapf(ErrUnsupportedFormat, "%s", filename)
	}
	if err := v.Err(); err != nil {
		return ledger.Draft{}, invalid(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Draft")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ledger.Draft{}, invalid(err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return ledger.Draft{}, invalid(err)
	}
	var fd fileDraft
	if err := json.Unmarshal(raw, &fd); err != nil {
		return ledger.Draft{}, errors.Mark(errors.Wrap(err, "decode draft"), ErrInvalidDraft)
	}
	return fd.toDraft(), nil
}

func (fd fileDraft) toDraft() ledger.Draft {
	d := ledger.Draft{
		CustomerKey:     fd.Customer,
		Date:            fd.Date,
		TransactionType: ledger.TransactionType(fd.Type),
		CreditAmount:    fd.Amount,
		Remarks:         fd.Remarks,
	}
	for _, it := range fd.Items {
		d.Items = append(d.Items, ledger.DraftItem{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return d
}

// invalid flattens a CUE error (which may hold several) into one message
// with positions and marks it ErrInvalidDraft.
func invalid(err error) error {
	msg := strings.TrimSpace(cueerrors.Details(err, nil))
	return errors.Mark(errors.Newf("%s", msg), ErrInvalidDraft)
}
