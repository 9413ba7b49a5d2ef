//go:build unix && !rp2040

package sleepgate

import (
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"
)

// The restart path ends in os.Exit, so it is exercised in a child process.
func TestExecRestartsSelf(t *testing.T) {
	if os.Getenv("SLEEPGATE_CHILD") == "1" {
		var slept time.Duration
		g := &Exec{
			sleep: func(d time.Duration) { slept = d },
			exec: func(argv0 string, argv, envv []string) error {
				if slept != MinSuspend || argv0 == "" || len(argv) == 0 {
					os.Exit(3)
				}
				os.Exit(0) // stands in for the new process image
				return nil
			},
		}
		g.Suspend(time.Second)
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestExecRestartsSelf$")
	cmd.Env = append(os.Environ(), "SLEEPGATE_CHILD=1")
	if err := cmd.Run(); err != nil {
		t.Fatalf("child: %v", err)
	}
}

func TestExecFailureExitsNonZero(t *testing.T) {
	if os.Getenv("SLEEPGATE_CHILD") == "2" {
		g := &Exec{
			sleep: func(time.Duration) {},
			exec:  func(string, []string, []string) error { return errors.New("ENOENT") },
		}
		g.Suspend(time.Minute)
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestExecFailureExitsNonZero$")
	cmd.Env = append(os.Environ(), "SLEEPGATE_CHILD=2")
	err := cmd.Run()
	var ee *exec.ExitError
	if !errors.As(err, &ee) || ee.ExitCode() != 1 {
		t.Fatalf("child err = %v, want exit status 1", err)
	}
}
