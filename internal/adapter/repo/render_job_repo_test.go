package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"studio/internal/sqlinline"
)

func TestRequeueStale(t *testing.T) {
	sql := &fakeSQL{execTags: []pgconn.CommandTag{pgconn.NewCommandTag("UPDATE 2")}}
	repo := NewRenderJobRepository(sql)

	n, err := repo.RequeueStale(context.Background(), 35*time.Minute)
	if err != nil {
		t.Fatalf("RequeueStale: %v", err)
	}
	if n != 2 {
		t.Fatalf("requeued = %d, want 2", n)
	}
	if len(sql.execs) != 1 || sql.execs[0].query != sqlinline.QRequeueStaleRenderJobs {
		t.Fatal("wrong statement issued")
	}
	args := sql.execs[0].args
	if len(args) != 1 || args[0] != int64(35*60) {
		t.Fatalf("threshold args = %v, want seconds", args)
	}
}

func TestRequeueStaleSurfacesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	sql := &fakeSQL{execErrs: []error{boom}}
	repo := NewRenderJobRepository(sql)

	if _, err := repo.RequeueStale(context.Background(), time.Minute); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the exec error", err)
	}
}
