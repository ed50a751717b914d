package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnter_ReleaseAllowsNextCaller(t *testing.T) {
	g := New()
	ctx := context.Background()

	_, release, err := g.Enter(ctx)
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if !g.Held() {
		t.Fatal("guard should be held after Enter")
	}
	release()
	release() // idempotent
	if g.Held() {
		t.Fatal("guard should be free after release")
	}

	_, release2, err := g.Enter(ctx)
	if err != nil {
		t.Fatalf("second Enter: %v", err)
	}
	release2()
}

func TestEnter_RejectsReentry(t *testing.T) {
	g := New()
	held, release, err := g.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	defer release()

	if _, _, err := g.Enter(held); !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("nested Enter err = %v, want ErrReentrantCall", err)
	}
}

func TestEnter_ReleasedContextIsNotReentrant(t *testing.T) {
	g := New()
	held, release, err := g.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	release()

	_, release2, err := g.Enter(held)
	if err != nil {
		t.Fatalf("Enter with released ctx: %v", err)
	}
	release2()
}

func TestEnter_SeparateGuardsDoNotInterfere(t *testing.T) {
	a, b := New(), New()
	held, release, err := a.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter a: %v", err)
	}
	defer release()

	_, releaseB, err := b.Enter(held)
	if err != nil {
		t.Fatalf("Enter b under a: %v", err)
	}
	releaseB()
}

func TestEnter_SerializesCallers(t *testing.T) {
	g := New()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := g.Enter(context.Background())
			if err != nil {
				t.Errorf("Enter: %v", err)
				return
			}
			defer release()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
}

func TestEnter_ContextCancelledWhileWaiting(t *testing.T) {
	g := New()
	_, release, err := g.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := g.Enter(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
