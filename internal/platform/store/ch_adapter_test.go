package store

import (
	"context"
	"strings"
	"testing"

	"oracle/internal/platform/store/ch"
)

func TestCHAdapter_InsertRejectsShape(t *testing.T) {
	t.Parallel()

	a := newCHAdapter(&ch.CH{})
	err := a.Insert(context.Background(), "oracle_audit", []string{"nope"})
	if err == nil || !strings.Contains(err.Error(), "oracle_audit wants [][]any, got []string") {
		t.Fatalf("want shape error, got %v", err)
	}
}

func TestCHAdapter_PingClosed(t *testing.T) {
	t.Parallel()

	for name, a := range map[string]*chAdapter{"nil": nil, "empty": {}} {
		if err := a.Ping(context.Background()); err == nil {
			t.Fatalf("%s adapter ping should fail", name)
		}
	}
}
