package ssh

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/surfspot/internal/util/keygen"
)

// generateTestKey generates a test key pair for use in tests.
func generateTestKey(t *testing.T) *keygen.KeyPair {
	t.Helper()
	keyPair, err := keygen.GenerateEd25519KeyPair("test")
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return keyPair
}

// startTestServer runs an in-process sshd that accepts only the given key
// and answers every exec request with exit status 0.
func startTestServer(t *testing.T, authorized []byte) (string, int) {
	t.Helper()

	clientSigner, err := ssh.ParsePrivateKey(authorized)
	if err != nil {
		t.Fatalf("failed to parse authorized key: %v", err)
	}
	allowed := clientSigner.PublicKey().Marshal()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostPriv)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}

	serverCfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), allowed) {
				return nil, nil
			}
			return nil, errors.New("unauthorized")
		},
	}
	serverCfg.AddHostKey(hostSigner)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, serverCfg)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range chReqs {
				if req.Type != "exec" {
					_ = req.Reply(false, nil)
					continue
				}
				_ = req.Reply(true, nil)
				_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
				_ = ch.Close()
				return
			}
		}()
	}
}

func TestNewClient_Success(t *testing.T) {
	keyPair := generateTestKey(t)

	client, err := NewClient(&Config{
		Host:       "192.0.2.10",
		User:       "ubuntu",
		PrivateKey: keyPair.PrivateKey,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if client.config.Port != defaultPort {
		t.Errorf("expected port %d, got %d", defaultPort, client.config.Port)
	}
	if client.config.DialTimeout != defaultDialTimeout {
		t.Errorf("expected timeout %v, got %v", defaultDialTimeout, client.config.DialTimeout)
	}
	if client.config.MaxRetries != defaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", defaultMaxRetries, client.config.MaxRetries)
	}
	if client.config.RetryDelay != defaultRetryDelay {
		t.Errorf("expected retry delay %v, got %v", defaultRetryDelay, client.config.RetryDelay)
	}
	if client.signer == nil {
		t.Fatal("expected signer to be set, got nil")
	}
	if got := client.addr(); got != "192.0.2.10:22" {
		t.Errorf("expected addr 192.0.2.10:22, got %s", got)
	}
}

func TestNewClient_Validation(t *testing.T) {
	keyPair := generateTestKey(t)

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"nil config", nil, "config cannot be nil"},
		{"empty host", &Config{User: "u", PrivateKey: keyPair.PrivateKey}, "config host cannot be empty"},
		{"empty user", &Config{Host: "h", PrivateKey: keyPair.PrivateKey}, "config user cannot be empty"},
		{"empty key", &Config{Host: "h", User: "u"}, "config private key cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestNewClient_InvalidKey(t *testing.T) {
	_, err := NewClient(&Config{
		Host:       "192.0.2.10",
		User:       "ubuntu",
		PrivateKey: []byte("invalid key"),
	})
	if err == nil {
		t.Fatal("expected error for invalid private key, got nil")
	}

	want := "failed to parse private key"
	if len(err.Error()) < len(want) || err.Error()[:len(want)] != want {
		t.Errorf("expected error starting with %q, got: %v", want, err)
	}
}

func TestNewClient_ConfigNotMutated(t *testing.T) {
	keyPair := generateTestKey(t)

	cfg := &Config{
		Host:       "192.0.2.10",
		User:       "ubuntu",
		PrivateKey: keyPair.PrivateKey,
	}

	if _, err := NewClient(cfg); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Port != 0 || cfg.DialTimeout != 0 || cfg.MaxRetries != 0 || cfg.RetryDelay != 0 || cfg.HostKeyCallback != nil {
		t.Errorf("config was mutated: %+v", cfg)
	}
}

func TestProbe_Success(t *testing.T) {
	keyPair := generateTestKey(t)
	host, port := startTestServer(t, keyPair.PrivateKey)

	client, err := NewClient(&Config{
		Host:       host,
		Port:       port,
		User:       "ubuntu",
		PrivateKey: keyPair.PrivateKey,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Probe(ctx); err != nil {
		t.Fatalf("expected probe to succeed, got: %v", err)
	}
}

func TestProbe_WrongKey(t *testing.T) {
	serverKey := generateTestKey(t)
	clientKey := generateTestKey(t)
	host, port := startTestServer(t, serverKey.PrivateKey)

	client, err := NewClient(&Config{
		Host:       host,
		Port:       port,
		User:       "ubuntu",
		PrivateKey: clientKey.PrivateKey,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Probe(context.Background()); err == nil {
		t.Fatal("expected probe with unauthorized key to fail")
	}
}

func TestProbe_ContextCancellation(t *testing.T) {
	keyPair := generateTestKey(t)

	client, err := NewClient(&Config{
		Host:       "192.0.2.10",
		User:       "ubuntu",
		PrivateKey: keyPair.PrivateKey,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("expected no error creating client, got: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = client.Probe(ctx)
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got: %v", err)
	}
}
