package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// Result captures the outcome of a one-shot remote command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Exec runs a single command on a remote host over SSH with password
// auth. A non-zero exit status is reported in the Result, not as an
// error. The context bounds the whole operation, dial included.
func Exec(ctx context.Context, address, username, password, command string) (Result, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, "22")
	}

	cfg := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}
	if deadline, ok := ctx.Deadline(); ok {
		cfg.Timeout = time.Until(deadline)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Result{}, fmt.Errorf("ssh %s: dial: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, cfg)
	if err != nil {
		conn.Close()
		return Result{}, fmt.Errorf("ssh %s: handshake: %w", address, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("ssh %s: session: %w", address, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		// Closing the client forces Run to return; wait for it so the
		// stream copiers are finished before the buffers are read.
		client.Close()
		<-done
		return Result{Stdout: stdout.String(), Stderr: stderr.String()},
			fmt.Errorf("ssh %s: command timed out: %w", address, ctx.Err())
	case err := <-done:
		res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				res.ExitCode = exitErr.ExitStatus()
				return res, nil
			}
			return res, fmt.Errorf("ssh %s: run: %w", address, err)
		}
		return res, nil
	}
}
