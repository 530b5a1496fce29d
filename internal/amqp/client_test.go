package amqp

import (
	"errors"
	"fmt"
	"testing"

	"kakeibo/internal/gateway"
)

func TestRequeueOnFailure(t *testing.T) {
	wrapped := fmt.Errorf("get period from storage: %w", gateway.ErrNotFound)
	if requeueOnFailure(wrapped) {
		t.Fatalf("a missing period must be dropped, not redelivered")
	}
	if !requeueOnFailure(errors.New("sheets unavailable")) {
		t.Fatalf("transient failures must be redelivered")
	}
}
