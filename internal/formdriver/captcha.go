// internal/formdriver/captcha.go
package formdriver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// ErrCaptchaDetected is returned when a CAPTCHA blocks the flow and no
// operator is available to solve it.
var ErrCaptchaDetected = errors.New("captcha detected and no operator available")

// CaptchaGate suspends a flow while an operator solves a CAPTCHA in the
// browser window. Non-interactive deployments fail fast instead of hanging.
type CaptchaGate struct {
	// NonInteractive makes Await return ErrCaptchaDetected immediately.
	NonInteractive bool
	// Wait bounds how long Await blocks for the operator. Zero means no
	// bound beyond context cancellation.
	Wait time.Duration
	// In is the operator input stream, normally os.Stdin.
	In io.Reader
	// Out receives the operator prompt, normally os.Stdout.
	Out io.Writer

	Logger *zap.Logger
}

// Await blocks until the operator confirms the CAPTCHA is solved by pressing
// Enter, the wait bound expires, or the context is canceled.
func (g *CaptchaGate) Await(ctx context.Context) error {
	if g.NonInteractive {
		if g.Logger != nil {
			g.Logger.Warn("CAPTCHA present in non-interactive mode, failing fast")
		}
		return ErrCaptchaDetected
	}

	if g.Out != nil {
		fmt.Fprintln(g.Out, "CAPTCHA detected. Solve it in the browser window, then press Enter to continue...")
	}

	done := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(g.In)
		_, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			done <- err
			return
		}
		done <- nil
	}()

	var bound <-chan time.Time
	if g.Wait > 0 {
		timer := time.NewTimer(g.Wait)
		defer timer.Stop()
		bound = timer.C
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reading operator confirmation: %w", err)
		}
		return nil
	case <-bound:
		return fmt.Errorf("%w: operator did not confirm within %s", ErrCaptchaDetected, g.Wait)
	case <-ctx.Done():
		return ctx.Err()
	}
}
