package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      FailureKind
		wantRetryable bool
	}{
		{
			name:          "bad credentials is rejected",
			err:           packets.ErrorRefusedBadUsernameOrPassword,
			wantKind:      KindRejected,
			wantRetryable: false,
		},
		{
			name:          "not authorised is rejected",
			err:           packets.ErrorRefusedNotAuthorised,
			wantKind:      KindRejected,
			wantRetryable: false,
		},
		{
			name:          "identifier rejected is rejected",
			err:           packets.ErrorRefusedIDRejected,
			wantKind:      KindRejected,
			wantRetryable: false,
		},
		{
			name:          "bad protocol version is rejected",
			err:           packets.ErrorRefusedBadProtocolVersion,
			wantKind:      KindRejected,
			wantRetryable: false,
		},
		{
			name:          "server unavailable is unreachable",
			err:           packets.ErrorRefusedServerUnavailable,
			wantKind:      KindUnreachable,
			wantRetryable: true,
		},
		{
			name:          "wrapped refusal still classifies",
			err:           fmt.Errorf("connect: %w", packets.ErrorRefusedNotAuthorised),
			wantKind:      KindRejected,
			wantRetryable: false,
		},
		{
			name:          "deadline exceeded is timeout",
			err:           context.DeadlineExceeded,
			wantKind:      KindTimeout,
			wantRetryable: true,
		},
		{
			name:          "dns failure is unreachable",
			err:           &net.DNSError{Err: "no such host", Name: "broker.invalid"},
			wantKind:      KindUnreachable,
			wantRetryable: true,
		},
		{
			name:          "connection refused is unreachable",
			err:           &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantKind:      KindUnreachable,
			wantRetryable: true,
		},
		{
			name:          "host unreachable is unreachable",
			err:           &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantKind:      KindUnreachable,
			wantRetryable: true,
		},
		{
			name:          "unknown transport error defaults to unreachable",
			err:           errors.New("EOF"),
			wantKind:      KindUnreachable,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "broker.local:1883")
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if got.Broker != "broker.local:1883" {
				t.Errorf("Broker = %q", got.Broker)
			}
			if !errors.Is(got, tt.err) && got.Err != tt.err {
				t.Error("classified error does not wrap the cause")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil, "x") != nil {
		t.Error("Classify(nil) != nil")
	}
}

func TestIsRetryable(t *testing.T) {
	rejected := Classify(packets.ErrorRefusedNotAuthorised, "b:1883")
	if IsRetryable(rejected) {
		t.Error("a rejected session must not be retried")
	}

	unreachable := Classify(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, "b:1883")
	if !IsRetryable(unreachable) {
		t.Error("an unreachable broker must be retried")
	}

	// Errors outside the taxonomy are not retried
	if IsRetryable(errors.New("something else")) {
		t.Error("unclassified errors must not be retried")
	}

	// A wrapped SessionError still answers correctly
	wrapped := fmt.Errorf("cycle: %w", unreachable)
	if !IsRetryable(wrapped) {
		t.Error("wrapped SessionError lost its retryable flag")
	}
}

func TestIsRejected(t *testing.T) {
	if !IsRejected(Classify(packets.ErrorRefusedBadUsernameOrPassword, "b:1883")) {
		t.Error("IsRejected = false for a credential refusal")
	}
	if IsRejected(Classify(context.DeadlineExceeded, "b:1883")) {
		t.Error("IsRejected = true for a timeout")
	}
	if IsRejected(errors.New("plain")) {
		t.Error("IsRejected = true for an unclassified error")
	}
}
