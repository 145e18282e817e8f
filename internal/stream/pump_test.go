package stream

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"
)

// blockingBody blocks every Read until Close is called.
type blockingBody struct {
	once   sync.Once
	closed chan struct{}
}

func newBlockingBody() *blockingBody {
	return &blockingBody{closed: make(chan struct{})}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("read on closed body")
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func TestPump_OneByteChunks(t *testing.T) {
	input := "data: {\"text\":\"a\"}\n\ndata: {\"text\":\"b\"}\n\ndata: {\"text\":\"c\"}"
	body := io.NopCloser(iotest.OneByteReader(strings.NewReader(input)))

	var got []string
	err := Pump(context.Background(), body, NewDecoder(FramingEvent), PumpOptions{}, func(rec string) bool {
		got = append(got, rec)
		return true
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	want := []string{`{"text":"a"}`, `{"text":"b"}`, `{"text":"c"}`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
}

func TestPump_CancelStopsEmissions(t *testing.T) {
	input := strings.Repeat("{\"response\":\"x\"}\n", 50)
	body := io.NopCloser(iotest.OneByteReader(strings.NewReader(input)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	err := Pump(ctx, body, NewDecoder(FramingJSONLines), PumpOptions{}, func(rec string) bool {
		count++
		if count == 2 {
			cancel()
		}
		return true
	})
	if err != nil {
		t.Fatalf("Pump after cancel = %v, want nil", err)
	}
	if count != 2 {
		t.Errorf("records delivered = %d, want 2", count)
	}
}

func TestPump_StopFromCallback(t *testing.T) {
	body := io.NopCloser(strings.NewReader("{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"))
	count := 0
	err := Pump(context.Background(), body, NewDecoder(FramingJSONLines), PumpOptions{}, func(string) bool {
		count++
		return false
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if count != 1 {
		t.Errorf("records delivered = %d, want 1", count)
	}
}

func TestPump_ChunkTimeout(t *testing.T) {
	body := newBlockingBody()
	start := time.Now()
	err := Pump(context.Background(), body, NewDecoder(FramingEvent), PumpOptions{ChunkTimeout: 20 * time.Millisecond}, func(string) bool {
		t.Error("unexpected record")
		return true
	})
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("err = %v, want ErrReadTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Pump took %v to time out", elapsed)
	}
}

// lateBody answers its first Read only once Close has been called, so the
// chunk arrives after the deadline fired.
type lateBody struct {
	*blockingBody
	reads int
}

func (b *lateBody) Read(p []byte) (int, error) {
	b.reads++
	<-b.closed
	if b.reads > 1 {
		return 0, errors.New("read on closed body")
	}
	return copy(p, "{\"a\":1}\n{\"a\":2}\n"), nil
}

func TestPump_ChunkAfterDeadline(t *testing.T) {
	body := &lateBody{blockingBody: newBlockingBody()}
	var got []string
	err := Pump(context.Background(), body, NewDecoder(FramingJSONLines), PumpOptions{ChunkTimeout: 20 * time.Millisecond}, func(rec string) bool {
		got = append(got, rec)
		return true
	})
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("err = %v, want ErrReadTimeout", err)
	}
	if want := []string{`{"a":1}`, `{"a":2}`}; !reflect.DeepEqual(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
	if body.reads != 1 {
		t.Errorf("reads = %d, want 1", body.reads)
	}
}

// slowBody returns one line per Read, pausing before each.
type slowBody struct {
	lines []string
	pause time.Duration
}

func (b *slowBody) Read(p []byte) (int, error) {
	if len(b.lines) == 0 {
		return 0, io.EOF
	}
	time.Sleep(b.pause)
	n := copy(p, b.lines[0])
	b.lines = b.lines[1:]
	return n, nil
}

func (b *slowBody) Close() error { return nil }

func TestPump_SteadySlowStreamDoesNotTimeOut(t *testing.T) {
	body := &slowBody{pause: 15 * time.Millisecond}
	for i := 0; i < 10; i++ {
		body.lines = append(body.lines, "{\"a\":1}\n")
	}
	count := 0
	err := Pump(context.Background(), body, NewDecoder(FramingJSONLines), PumpOptions{ChunkTimeout: 60 * time.Millisecond}, func(string) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if count != 10 {
		t.Errorf("records delivered = %d, want 10", count)
	}
}

func TestPump_CancelWhileBlocked(t *testing.T) {
	body := newBlockingBody()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Pump(ctx, body, NewDecoder(FramingEvent), PumpOptions{}, func(string) bool { return true })
	if err != nil {
		t.Fatalf("err = %v, want nil on cancellation", err)
	}
}

func TestPump_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	body := io.NopCloser(iotest.ErrReader(boom))
	err := Pump(context.Background(), body, NewDecoder(FramingEvent), PumpOptions{}, func(string) bool { return true })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
