package cli

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var listenRe = regexp.MustCompile(`listening on (http://\S+)`)

func TestStubServes(t *testing.T) {
	var out syncBuffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"stub", "--addr", "127.0.0.1:0", "--status", "503"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- root.ExecuteContext(ctx) }()

	var url string
	require.Eventually(t, func() bool {
		m := listenRe.FindStringSubmatch(out.String())
		if m == nil {
			return false
		}
		url = m[1]
		return true
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(url + "?hall=hall-h3-new")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stub did not shut down")
	}
	assert.Contains(t, out.String(), "Served 1 requests")
}

func TestStubInvalidStatus(t *testing.T) {
	_, _, err := execute(t, "stub", "--status", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --status")
}
