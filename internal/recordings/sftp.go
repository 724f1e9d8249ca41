package recordings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ErrFileNotExist is returned by Stat for paths with no remote file.
var ErrFileNotExist = errors.New("remote file does not exist")

// FileInfo is the remote metadata the fetcher needs.
type FileInfo struct {
	Size int64
}

// RemoteStore is the byte provider for call recordings. The SFTP server
// is the production implementation; tests supply fakes.
type RemoteStore interface {
	Stat(ctx context.Context, path string) (FileInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// SFTPConfig configures the SFTP remote store.
type SFTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	KeyFile     string        // private key path, alternative to Password
	DialTimeout time.Duration // TCP + handshake timeout
}

// SFTPStore implements RemoteStore over an SFTP connection. The
// connection is established lazily and re-established after errors.
type SFTPStore struct {
	cfg SFTPConfig

	mu     sync.Mutex
	ssh    *ssh.Client
	client *sftp.Client
}

// NewSFTPStore creates an SFTP store. No connection is made until the
// first operation.
func NewSFTPStore(cfg SFTPConfig) *SFTPStore {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	return &SFTPStore{cfg: cfg}
}

// connect returns a live sftp client, dialing if needed.
func (s *SFTPStore) connect() (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	var auth []ssh.AuthMethod
	if s.cfg.KeyFile != "" {
		key, err := os.ReadFile(s.cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read sftp key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse sftp private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.cfg.Password != "" {
		auth = append(auth, ssh.Password(s.cfg.Password))
	}

	sshCfg := &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.cfg.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	sshConn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("dial sftp %s: %w", addr, err)
	}

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("sftp handshake: %w", err)
	}

	s.ssh = sshConn
	s.client = client
	return client, nil
}

// drop discards the cached connection so the next call re-dials.
func (s *SFTPStore) drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	if s.ssh != nil {
		s.ssh.Close()
		s.ssh = nil
	}
}

// Stat returns metadata for a remote path. The sftp library does not
// take a context, so the call runs in a goroutine and the context
// controls how long we wait for it.
func (s *SFTPStore) Stat(ctx context.Context, path string) (FileInfo, error) {
	client, err := s.connect()
	if err != nil {
		return FileInfo{}, err
	}

	type statResult struct {
		info os.FileInfo
		err  error
	}
	ch := make(chan statResult, 1)
	go func() {
		info, err := client.Stat(path)
		ch <- statResult{info, err}
	}()

	select {
	case <-ctx.Done():
		s.drop()
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, os.ErrNotExist) {
				return FileInfo{}, fmt.Errorf("stat %s: %w", path, ErrFileNotExist)
			}
			s.drop()
			return FileInfo{}, fmt.Errorf("stat %s: %w", path, res.err)
		}
		return FileInfo{Size: res.info.Size()}, nil
	}
}

// Open opens a streaming read of a remote path.
func (s *SFTPStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}

	type openResult struct {
		f   *sftp.File
		err error
	}
	ch := make(chan openResult, 1)
	go func() {
		f, err := client.Open(path)
		ch <- openResult{f, err}
	}()

	select {
	case <-ctx.Done():
		s.drop()
		return nil, fmt.Errorf("open %s: %w", path, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, os.ErrNotExist) {
				return nil, fmt.Errorf("open %s: %w", path, ErrFileNotExist)
			}
			s.drop()
			return nil, fmt.Errorf("open %s: %w", path, res.err)
		}
		return res.f, nil
	}
}

// Close shuts down the connection if one is open.
func (s *SFTPStore) Close() error {
	s.drop()
	return nil
}
