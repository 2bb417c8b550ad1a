package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndBorrow(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New("detect")
	a.False(rx.HasChanged())
	a.Equal("detect", rx.Borrow())

	tx.Send("grpc")
	a.True(rx.HasChanged())
	a.Equal("grpc", rx.Borrow())
	a.True(rx.HasChanged(), "Borrow must not mark the value as seen")

	a.Equal("grpc", rx.BorrowAndUpdate())
	a.False(rx.HasChanged())
	a.Equal(uint64(1), rx.Version())
}

func TestConflation(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New(0)
	for i := 1; i <= 100; i++ {
		tx.Send(i)
	}

	a.True(rx.HasChanged())
	a.Equal(100, rx.BorrowAndUpdate())
	a.False(rx.HasChanged())
	a.Equal(uint64(100), tx.Version())
}

func TestSendIfModified(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New(1)
	a.False(tx.SendIfModified(func(v int) (int, bool) { return v, false }))
	a.False(rx.HasChanged())

	a.True(tx.SendIfModified(func(v int) (int, bool) { return v + 1, true }))
	a.True(rx.HasChanged())
	a.Equal(2, rx.BorrowAndUpdate())
}

func TestSubscribeAndClone(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New("a")
	tx.Send("b")

	late := tx.Subscribe()
	a.False(late.HasChanged())
	a.Equal("b", late.Borrow())

	clone := rx.Clone()
	a.True(clone.HasChanged())
	clone.BorrowAndUpdate()
	a.False(clone.HasChanged())
	a.True(rx.HasChanged())
}

func TestNext(t *testing.T) {
	tx, rx := New("a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		tx.Send("b")
	}()

	v, err := rx.Next(ctx)
	require.NoError(t, err)
	tassert.Equal(t, "b", v)
	wg.Wait()

	// already changed values are returned without waiting
	tx.Send("c")
	v, err = rx.Next(ctx)
	require.NoError(t, err)
	tassert.Equal(t, "c", v)
}

func TestNextCancelled(t *testing.T) {
	_, rx := New("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rx.Next(ctx)
	tassert.ErrorIs(t, err, context.Canceled)
}

func TestOrderingIsGapFree(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 1000; i++ {
			tx.Send(i)
		}
	}()

	last := 0
	for last < 1000 {
		v, err := rx.Next(ctx)
		require.NoError(t, err)
		a.Greater(v, last, "values must be observed in increasing order")
		last = v
	}
	<-done
}

func TestClose(t *testing.T) {
	a := tassert.New(t)

	tx, rx := New("detect")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx.Send("http1")
	tx.Close()
	tx.Close()
	a.True(rx.IsClosed())

	// the last value sent before Close is still delivered
	value, err := rx.Next(ctx)
	require.NoError(t, err)
	a.Equal("http1", value)

	_, err = rx.Next(ctx)
	a.ErrorIs(err, ErrClosed)

	tx.Send("grpc")
	a.False(tx.SendIfModified(func(string) (string, bool) { return "opaque", true }))
	a.Equal("http1", rx.Borrow())
	a.False(rx.HasChanged())
}

func TestCloseWakesWaitingReceiver(t *testing.T) {
	tx, rx := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error)
	go func() {
		_, err := rx.Next(ctx)
		errs <- err
	}()

	tx.Close()
	tassert.ErrorIs(t, <-errs, ErrClosed)
}
