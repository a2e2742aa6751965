package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/collswitch/internal/config"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running collswitch server",
	Long: `Stop the collswitch server by sending SIGTERM to the process in the PID file.

With --wait the command blocks until the process has exited, which includes
the final save of the decision state.`,
	RunE: runStop,
}

var (
	pidFile  string
	stopWait time.Duration
)

func init() {
	stopCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
	stopCmd.Flags().DurationVar(&stopWait, "wait", 0, "wait up to this long for the process to exit")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := pidFile
	if pidPath == "" {
		cfg := config.LoadOrDefault(cfgFile)
		pidPath = cfg.Server.PIDFile
	}

	if pidPath == "" {
		return fmt.Errorf("no PID file specified (use --pid-file or configure server.pid_file)")
	}

	pid, err := readPIDFile(pidPath)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %d", pid)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("process %d is not running (stale PID file %s)", pid, pidPath)
		}
		return fmt.Errorf("failed to send signal: %w", err)
	}

	status := "signaled"
	if stopWait > 0 {
		if !waitExit(process, stopWait) {
			return fmt.Errorf("process %d still running after %s", pid, stopWait)
		}
		status = "stopped"
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		fmt.Fprintf(out, `{"status":%q,"pid":%d}`+"\n", status, pid)
	} else if status == "stopped" {
		fmt.Fprintf(out, "Process %d stopped\n", pid)
	} else {
		fmt.Fprintf(out, "Sent SIGTERM to process %d\n", pid)
	}

	return nil
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file not found: %s (server may not be running)", path)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %s", pidStr)
	}
	return pid, nil
}

// waitExit polls with signal 0 until the process is gone or timeout passes.
func waitExit(p *os.Process, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := p.Signal(syscall.Signal(0)); err != nil {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
