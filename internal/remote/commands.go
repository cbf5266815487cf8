package remote

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"hubgate/internal/models"
)

// Windows hosts run OpenSSH with psexec available for user-desktop
// interaction and nircmd installed for audio control.
const chromePath = `c:\Program Files\Google\Chrome\Application\chrome.exe`

const DefaultTimeout = 20 * time.Second

var pidPattern = regexp.MustCompile(`process ID (\d+)`)

type execFunc func(ctx context.Context, address, username, password, command string) (Result, error)

// Actions provides the device-level operations the gateway exposes for
// managed hosts. The exec function is injectable for tests.
type Actions struct {
	Timeout time.Duration
	exec    execFunc
}

func NewActions(timeout time.Duration) *Actions {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Actions{Timeout: timeout, exec: Exec}
}

func (a *Actions) run(ctx context.Context, host models.Host, command string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	return a.exec(ctx, host.Address, host.Username, host.Password, command)
}

// Reboot restarts the host using its platform's native command.
func (a *Actions) Reboot(ctx context.Context, host models.Host) error {
	res, err := a.run(ctx, host, rebootCommand(host.Platform))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("reboot failed on %s with exit status %d", host.Address, res.ExitCode)
	}
	return nil
}

// Mute sets or clears the host's system mute.
func (a *Actions) Mute(ctx context.Context, host models.Host, mute bool) error {
	res, err := a.run(ctx, host, muteCommand(host.Platform, mute))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("mute failed on %s with exit status %d", host.Address, res.ExitCode)
	}
	return nil
}

// OpenApplication launches an application in the host's active desktop
// session and returns the new process ID. Windows only.
func (a *Actions) OpenApplication(ctx context.Context, host models.Host, application, arguments string) (string, error) {
	sessionID, err := a.lookupSessionID(ctx, host)
	if err != nil {
		return "", err
	}

	cmd := psexecCommand(host.Username, host.Password, sessionID, application, arguments)
	res, err := a.run(ctx, host, cmd)
	if err != nil {
		return "", err
	}

	// psexec reports the spawned PID on stderr.
	pid := extractPID(res.Stderr)
	if pid == "" {
		return "", fmt.Errorf("launch on %s did not report a process ID: %s %s",
			host.Address, strings.TrimSpace(res.Stdout), strings.TrimSpace(res.Stderr))
	}
	return pid, nil
}

// OpenKiosk opens a URL full screen in Chrome on the host and returns
// the browser's process ID.
func (a *Actions) OpenKiosk(ctx context.Context, host models.Host, url string) (string, error) {
	return a.OpenApplication(ctx, host, chromePath, fmt.Sprintf("--kiosk\" \"%s", url))
}

// CloseProcess force-kills a process by PID on a Windows host.
func (a *Actions) CloseProcess(ctx context.Context, host models.Host, pid string) error {
	res, err := a.run(ctx, host, fmt.Sprintf("taskkill /PID %s /F", pid))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("killing process %s on %s failed with exit status %d", pid, host.Address, res.ExitCode)
	}
	return nil
}

// Nircmd passes a raw nircmd command through to a Windows host.
func (a *Actions) Nircmd(ctx context.Context, host models.Host, cmd string) error {
	res, err := a.run(ctx, host, "nircmd "+cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("nircmd on %s failed with exit status %d", host.Address, res.ExitCode)
	}
	return nil
}

// ChangeVolume adjusts the host's system volume. Action is one of
// up, down, mute, unmute; step applies to up and down.
func (a *Actions) ChangeVolume(ctx context.Context, host models.Host, action string, step int) error {
	cmd, err := volumeCommand(action, step)
	if err != nil {
		return err
	}
	res, err := a.run(ctx, host, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("volume %s on %s failed with exit status %d", action, host.Address, res.ExitCode)
	}
	return nil
}

func (a *Actions) lookupSessionID(ctx context.Context, host models.Host) (string, error) {
	res, err := a.run(ctx, host, "qwinsta "+host.Username)
	if err != nil {
		return "", err
	}
	id := parseSessionID(res.Stdout, host.Username)
	if id == "" {
		return "", fmt.Errorf("no active desktop session for %s on %s", host.Username, host.Address)
	}
	return id, nil
}

func normalizePlatform(platform string) string {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "windows", "win":
		return "windows"
	case "mac":
		return "mac"
	default:
		return "unix"
	}
}

func rebootCommand(platform string) string {
	if normalizePlatform(platform) == "windows" {
		return "shutdown /r /t 0"
	}
	return "sudo reboot now"
}

func muteCommand(platform string, mute bool) string {
	flag := 0
	if mute {
		flag = 1
	}
	switch normalizePlatform(platform) {
	case "windows":
		return fmt.Sprintf("nircmd mutesysvolume %d", flag)
	case "mac":
		return fmt.Sprintf("osascript -e 'set volume %d'", 1-flag)
	default:
		return fmt.Sprintf("amixer -D pulse sset Master 'mute' %d", flag)
	}
}

func psexecCommand(username, password, sessionID, application, arguments string) string {
	cmd := fmt.Sprintf("psexec -accepteula -u %s -p %s -d -i %s \"%s\"",
		username, password, sessionID, application)
	if arguments != "" {
		cmd += fmt.Sprintf(" \"%s\"", arguments)
	}
	return cmd
}

func volumeCommand(action string, step int) (string, error) {
	if step <= 0 {
		step = 2000
	}
	switch action {
	case "down":
		return fmt.Sprintf("nircmd.exe changesysvolume -%d", step), nil
	case "up":
		return fmt.Sprintf("nircmd.exe changesysvolume +%d", step), nil
	case "mute":
		return "nircmd.exe mutesysvolume 1", nil
	case "unmute":
		return "nircmd.exe mutesysvolume 0", nil
	default:
		return "", fmt.Errorf("unknown volume action %q", action)
	}
}

// parseSessionID pulls the console session ID for a user out of
// qwinsta output.
func parseSessionID(output, username string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "console") || !strings.Contains(trimmed, username) {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) > 2 {
			return fields[2]
		}
	}
	return ""
}

func extractPID(stderr string) string {
	m := pidPattern.FindStringSubmatch(stderr)
	if m == nil {
		return ""
	}
	return m[1]
}
