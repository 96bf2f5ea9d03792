package syncfacade

import (
	"context"
	"errors"
	"testing"
	"time"

	"lspkit/facade"
	"lspkit/langconfig"
)

func newUnstartedFacade(t *testing.T) *facade.Facade {
	t.Helper()
	f, err := facade.New(facade.Options{RepoRoot: t.TempDir(), Lang: langconfig.Go()})
	if err != nil {
		t.Fatalf("facade.New: %v", err)
	}
	return f
}

func TestStopIsIdempotent(t *testing.T) {
	sf := &SyncFacade{core: newUnstartedFacade(t), jobs: make(chan job, 1)}
	sf.loopWg.Add(1)
	go sf.loop()

	err1 := sf.Stop(time.Second)
	err2 := sf.Stop(time.Second)
	if err1 != nil {
		t.Fatalf("first Stop: %v", err1)
	}
	if !errors.Is(err2, err1) && err2 != err1 {
		t.Errorf("second Stop returned a different result: %v vs %v", err2, err1)
	}
}

func TestCallTimesOutWhenOperationIsSlow(t *testing.T) {
	sf := &SyncFacade{core: newUnstartedFacade(t), timeout: 10 * time.Millisecond, jobs: make(chan job, 1)}
	sf.loopWg.Add(1)
	go sf.loop()
	defer func() {
		close(sf.jobs)
		sf.loopWg.Wait()
	}()

	_, err := call(sf, "slowOp", func(ctx context.Context) (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 42, nil
	})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if timeoutErr.Op != "slowOp" {
		t.Errorf("expected op slowOp, got %q", timeoutErr.Op)
	}
}

func TestCallReturnsResultWhenFast(t *testing.T) {
	sf := &SyncFacade{core: newUnstartedFacade(t), jobs: make(chan job, 1)}
	sf.loopWg.Add(1)
	go sf.loop()
	defer func() {
		close(sf.jobs)
		sf.loopWg.Wait()
	}()

	got, err := call(sf, "fastOp", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}
