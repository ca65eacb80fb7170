package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	ctx, id := WithRequestID(context.Background(), "")
	if id == "" {
		t.Fatalf("expected generated request id")
	}

	err := errors.New("boom")
	Time(ctx, "unit.op")(&err)

	out := buf.String()
	if !strings.Contains(out, "req_id="+id) || !strings.Contains(out, "op=unit.op") || !strings.Contains(out, "err=boom") {
		t.Fatalf("unexpected log line: %q", out)
	}
}
