package push_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocknear/edge/pkg/push"
)

type recordingPresenter struct {
	shown []push.Notification
	err   error
}

func (p *recordingPresenter) Show(ctx context.Context, n push.Notification) error {
	p.shown = append(p.shown, n)
	return p.err
}

type fakeWindow struct {
	url     string
	focused bool
}

func (w *fakeWindow) URL() string { return w.url }

func (w *fakeWindow) Focus(ctx context.Context) error {
	w.focused = true
	return nil
}

type fakeClients struct {
	windows []*fakeWindow
	opened  []string
}

func (c *fakeClients) MatchAll(ctx context.Context) ([]push.Window, error) {
	out := make([]push.Window, len(c.windows))
	for i, w := range c.windows {
		out[i] = w
	}
	return out, nil
}

func (c *fakeClients) OpenWindow(ctx context.Context, url string) error {
	c.opened = append(c.opened, url)
	return nil
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("shows the parsed notification", func(t *testing.T) {
		t.Parallel()

		presenter := &recordingPresenter{}
		d := newTestDispatcher(t, presenter, nil)

		n := d.Dispatch(context.Background(), []byte(`{"title":"Alert","body":"Price moved","url":"/stocks/ABC"}`))

		require.Len(t, presenter.shown, 1)
		assert.Equal(t, n, presenter.shown[0])
		assert.Equal(t, "Alert", n.Title)
	})

	t.Run("presentation failure is swallowed", func(t *testing.T) {
		t.Parallel()

		presenter := &recordingPresenter{err: errors.New("display busy")}
		d := newTestDispatcher(t, presenter, nil)

		n := d.Dispatch(context.Background(), []byte("plain text"))
		assert.Equal(t, "plain text", n.Body)
	})
}

func TestHandleClick(t *testing.T) {
	t.Parallel()

	t.Run("focuses an existing window at the target", func(t *testing.T) {
		t.Parallel()

		match := &fakeWindow{url: "https://stocknear.com/stocks/ABC"}
		other := &fakeWindow{url: "https://stocknear.com/"}
		clients := &fakeClients{windows: []*fakeWindow{other, match}}

		d := newTestDispatcher(t, nopPresenter{}, clients)
		n := d.Parse([]byte(`{"title":"Alert","body":"b","url":"/stocks/ABC"}`))

		require.NoError(t, d.HandleClick(context.Background(), n))

		assert.True(t, match.focused)
		assert.False(t, other.focused)
		assert.Empty(t, clients.opened)
	})

	t.Run("opens a new window when no exact match exists", func(t *testing.T) {
		t.Parallel()

		clients := &fakeClients{windows: []*fakeWindow{
			{url: "https://stocknear.com/stocks/XYZ"},
		}}

		d := newTestDispatcher(t, nopPresenter{}, clients)
		n := d.Parse([]byte(`{"title":"Alert","body":"b","url":"/stocks/ABC"}`))

		require.NoError(t, d.HandleClick(context.Background(), n))

		assert.Equal(t, []string{"https://stocknear.com/stocks/ABC"}, clients.opened)
	})

	t.Run("default url opens the root", func(t *testing.T) {
		t.Parallel()

		clients := &fakeClients{}
		d := newTestDispatcher(t, nopPresenter{}, clients)
		n := d.Parse([]byte("plain text"))

		require.NoError(t, d.HandleClick(context.Background(), n))
		assert.Equal(t, []string{"https://stocknear.com/"}, clients.opened)
	})
}
