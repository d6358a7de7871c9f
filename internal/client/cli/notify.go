package cli

import (
	"fmt"
	"io"
	"sync"
)

// printNotifier shows mutation outcomes on the console. Remote failures are
// printed verbatim as the API reported them.
type printNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *printNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, styles.success.Render("✓ "+msg))
}

func (n *printNotifier) Failure(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, styles.failure.Render("✗ "+msg))
}
