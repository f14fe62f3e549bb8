package events

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/sevr/internal/logging"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewJSONLogger(&buf, "info"))

	n.UserSignedUp(context.Background(), Signup{UserID: "u1", Email: "a@x.com", At: time.Now()})

	assert.Contains(t, buf.String(), `"msg":"user signed up"`)
	assert.Contains(t, buf.String(), `"user_id":"u1"`)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		var n Notifier = Nop{}
		n.UserSignedUp(context.Background(), Signup{})
	})
}
