package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

// startSSHServer runs a password-auth SSH server on a loopback port and
// invokes handle for each exec request. Returns the listen address.
func startSSHServer(t *testing.T, handle func(ch ssh.Channel)) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("Failed to build signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "labuser" && string(pass) == "pw" {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied")
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nConn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				_, chans, reqs, err := ssh.NewServerConn(nConn, config)
				if err != nil {
					return
				}
				go ssh.DiscardRequests(reqs)
				for newCh := range chans {
					ch, requests, err := newCh.Accept()
					if err != nil {
						continue
					}
					go func() {
						for req := range requests {
							if req.Type == "exec" {
								req.Reply(true, nil)
								handle(ch)
							} else {
								req.Reply(false, nil)
							}
						}
					}()
				}
			}()
		}
	}()

	return ln.Addr().String()
}

func exitStatus(ch ssh.Channel, code uint32) {
	ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{code}))
	ch.Close()
}

func TestExecCapturesOutput(t *testing.T) {
	addr := startSSHServer(t, func(ch ssh.Channel) {
		fmt.Fprint(ch, "session output")
		fmt.Fprint(ch.Stderr(), "noise")
		exitStatus(ch, 0)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Exec(ctx, addr, "labuser", "pw", "hostname")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", res.ExitCode)
	}
	if res.Stdout != "session output" {
		t.Errorf("Unexpected stdout %q", res.Stdout)
	}
	if res.Stderr != "noise" {
		t.Errorf("Unexpected stderr %q", res.Stderr)
	}
}

func TestExecNonZeroExitIsNotError(t *testing.T) {
	addr := startSSHServer(t, func(ch ssh.Channel) {
		exitStatus(ch, 3)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Exec(ctx, addr, "labuser", "pw", "exit 3")
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", res.ExitCode)
	}
}

func TestExecBadCredentials(t *testing.T) {
	addr := startSSHServer(t, func(ch ssh.Channel) {
		exitStatus(ch, 0)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := Exec(ctx, addr, "labuser", "wrong", "hostname"); err == nil {
		t.Error("Expected handshake error for bad credentials")
	}
}

// A command that streams output and never exits must be cut off at the
// context deadline, and the partial output must be safe to read once
// the session is torn down.
func TestExecTimeoutWaitsForSession(t *testing.T) {
	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })

	addr := startSSHServer(t, func(ch ssh.Channel) {
		fmt.Fprint(ch, "partial ")
		<-stop
		ch.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	res, err := Exec(ctx, addr, "labuser", "pw", "tail -f /var/log/syslog")
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(res.Stdout, "partial") && res.Stdout != "" {
		t.Errorf("Unexpected partial stdout %q", res.Stdout)
	}
}
