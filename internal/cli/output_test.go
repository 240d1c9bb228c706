package cli

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/config"
	"github.com/roach88/ledgerbook/internal/ledger"
	"github.com/roach88/ledgerbook/internal/recordstore"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		TraceID: "trace-1",
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, "trace-1", resp.TraceID)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    buf,
		ErrWriter: errBuf,
	}

	err := formatter.Error(ErrCodeDuplicate, "product already exists", nil)
	require.NoError(t, err)
	assert.Empty(t, errBuf.String())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Equal(t, "product already exists", resp.Error.Message)
}

type greeting string

func (g greeting) RenderText(w io.Writer) {
	fmt.Fprintf(w, "hello, %s\n", string(g))
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("plain value"))
	require.NoError(t, formatter.Success(greeting("shop")))
	assert.Equal(t, "plain value\nhello, shop\n", buf.String())
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "text",
		Writer:    buf,
		ErrWriter: errBuf,
	}

	require.NoError(t, formatter.Error("E001", "something broke", "ignored unless verbose"))
	assert.Empty(t, buf.String())
	assert.Equal(t, "Error [E001]: something broke\n", errBuf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	require.NoError(t, formatter.Error("E002", "database unavailable", "open /nope: permission denied"))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "Details: open /nope: permission denied")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exit int
		code string
	}{
		{"storage", errors.Mark(errors.New("x"), recordstore.ErrStorageUnavailable), ExitCommandError, ErrCodeStorageUnavailable},
		{"duplicate bill", errors.Mark(errors.New("x"), ledger.ErrDuplicateBillNumber), ExitFailure, ErrCodeDuplicate},
		{"duplicate product", errors.Mark(errors.New("x"), catalog.ErrDuplicateProduct), ExitFailure, ErrCodeDuplicate},
		{"invalid bill", errors.Mark(errors.New("x"), ledger.ErrInvalidBill), ExitFailure, ErrCodeInvalidInput},
		{"unknown customer", errors.Mark(errors.New("x"), ledger.ErrUnknownCustomer), ExitFailure, ErrCodeInvalidInput},
		{"not found", errors.Mark(errors.New("x"), errNotFound), ExitFailure, ErrCodeNotFound},
		{"config", errors.Mark(errors.New("x"), config.ErrInvalidConfig), ExitCommandError, ErrCodeConfig},
		{"backend", errors.Mark(errors.New("x"), recordstore.ErrBackendIO), ExitFailure, ErrCodeBackend},
		{"exit error", NewExitError(ExitFailure, "nope"), ExitFailure, ErrCodeGeneric},
		{"plain", errors.New("unknown flag: --x"), ExitCommandError, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := describe(tt.err)
			assert.Equal(t, tt.exit, d.Exit)
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.exit, GetExitCode(tt.err))
		})
	}
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}

func TestFail_AddsDetailsWhenMessageDiffers(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := errors.Mark(errors.New("insert into products: UNIQUE constraint failed"), catalog.ErrDuplicateProduct)
	assert.Equal(t, ExitFailure, formatter.Fail(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "product already exists", resp.Error.Message)
	assert.Equal(t, "insert into products: UNIQUE constraint failed", resp.Error.Details)
}

func TestExitError(t *testing.T) {
	inner := errors.New("inner")
	err := WrapExitError(ExitCommandError, "outer", inner)
	assert.Equal(t, "outer: inner", err.Error())
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}
