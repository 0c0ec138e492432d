package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

// fakeSQL scripts Exec results in call order. QueryRow and Query are not used
// by the tests in this package.
type fakeSQL struct {
	execs    []execCall
	execErrs []error
	execTags []pgconn.CommandTag
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	i := len(f.execs)
	f.execs = append(f.execs, execCall{query: query, args: args})
	var tag pgconn.CommandTag
	if i < len(f.execTags) {
		tag = f.execTags[i]
	}
	if i < len(f.execErrs) {
		return tag, f.execErrs[i]
	}
	return tag, nil
}

func (f *fakeSQL) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	panic("QueryRow not scripted")
}

func (f *fakeSQL) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	panic("Query not scripted")
}

func TestTransactionUpdateStatus(t *testing.T) {
	sql := &fakeSQL{}
	repo := NewTransactionRepository(sql, zerolog.Nop())

	err := repo.UpdateStatus(context.Background(), "pay_123", domain.TxCaptured, domain.RenderCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(sql.execs) != 1 {
		t.Fatalf("execs = %d, want 1", len(sql.execs))
	}
	if sql.execs[0].query != sqlinline.QUpdateTransactionStatus {
		t.Fatal("wrong statement issued")
	}
}

func TestTransactionUpdateStatusDegradesWithoutRenderColumn(t *testing.T) {
	sql := &fakeSQL{
		execErrs: []error{&pgconn.PgError{Code: "42703"}, nil},
	}
	repo := NewTransactionRepository(sql, zerolog.Nop())

	err := repo.UpdateStatus(context.Background(), "pay_123", domain.TxRefunded, domain.RenderFailed)
	if err != nil {
		t.Fatalf("UpdateStatus should absorb the missing column: %v", err)
	}
	if len(sql.execs) != 2 {
		t.Fatalf("execs = %d, want full write then legacy fallback", len(sql.execs))
	}
	if sql.execs[1].query != sqlinline.QUpdateTransactionStatusLegacy {
		t.Fatal("fallback did not use the status-only statement")
	}
	args := sql.execs[1].args
	if len(args) != 2 || args[0] != "pay_123" || args[1] != string(domain.TxRefunded) {
		t.Fatalf("legacy args = %v", args)
	}
}

func TestTransactionUpdateStatusSurfacesOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	sql := &fakeSQL{execErrs: []error{boom}}
	repo := NewTransactionRepository(sql, zerolog.Nop())

	err := repo.UpdateStatus(context.Background(), "pay_123", domain.TxCaptured, domain.RenderCompleted)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the exec error", err)
	}
	if len(sql.execs) != 1 {
		t.Fatalf("execs = %d, no fallback expected", len(sql.execs))
	}
}
