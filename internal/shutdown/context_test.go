package shutdown

import (
	"context"
	"syscall"
	"testing"
)

func TestInterruptContext(t *testing.T) {
	ctx, cancel := InterruptContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cancel()
	<-ctx.Done()
}

func TestInterruptContextParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := InterruptContext(parent, syscall.SIGUSR1)
	defer cancel()

	cancelParent()
	<-ctx.Done()
}
