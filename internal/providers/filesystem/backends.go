package filesystem

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hirochachacha/go-smb2"
	"github.com/jlaffaye/ftp"
	"github.com/studio-b12/gowebdav"
)

// LocalBackend serves a directory tree on the local machine.
type LocalBackend struct {
	root string
}

// NewLocalBackend builds a backend rooted at dir.
func NewLocalBackend(dir string) *LocalBackend {
	return &LocalBackend{root: dir}
}

func (b *LocalBackend) Kind() string { return "local" }

// Root returns the backend's root directory, used by the change watcher.
func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) List(ctx context.Context, dir string) ([]Entry, error) {
	entries, err := os.ReadDir(filepath.Join(b.root, dir))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Path:    path.Join(dir, e.Name()),
			IsDir:   e.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func (b *LocalBackend) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(b.root, p))
}

func (b *LocalBackend) Close() error { return nil }

// SMBConfig carries the connection parameters for an SMB share.
type SMBConfig struct {
	Host     string
	Port     int
	Share    string
	Username string
	Password string
	Domain   string
}

// SMBBackend serves files from an SMB share via go-smb2.
type SMBBackend struct {
	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
}

// DialSMB connects and mounts the configured share.
func DialSMB(cfg SMBConfig) (*SMBBackend, error) {
	if cfg.Port == 0 {
		cfg.Port = 445
	}
	conn, err := net.Dial("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("filesystem: smb dial: %w", err)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		},
	}
	session, err := d.Dial(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("filesystem: smb session: %w", err)
	}
	share, err := session.Mount(cfg.Share)
	if err != nil {
		session.Logoff()
		conn.Close()
		return nil, fmt.Errorf("filesystem: smb mount %s: %w", cfg.Share, err)
	}
	return &SMBBackend{conn: conn, session: session, share: share}, nil
}

func (b *SMBBackend) Kind() string { return "smb" }

func (b *SMBBackend) List(ctx context.Context, dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	infos, err := b.share.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		out = append(out, Entry{
			Path:    path.Join(dir, info.Name()),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func (b *SMBBackend) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return b.share.Open(p)
}

func (b *SMBBackend) Close() error {
	if b.share != nil {
		b.share.Umount()
	}
	if b.session != nil {
		b.session.Logoff()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// WebDAVBackend serves files from a WebDAV endpoint via gowebdav.
type WebDAVBackend struct {
	client *gowebdav.Client
}

// DialWebDAV connects to a WebDAV endpoint and verifies it answers.
func DialWebDAV(url, username, password string) (*WebDAVBackend, error) {
	client := gowebdav.NewClient(url, username, password)
	if _, err := client.ReadDir("/"); err != nil {
		return nil, fmt.Errorf("filesystem: webdav connect %s: %w", url, err)
	}
	return &WebDAVBackend{client: client}, nil
}

func (b *WebDAVBackend) Kind() string { return "webdav" }

func (b *WebDAVBackend) List(ctx context.Context, dir string) ([]Entry, error) {
	if dir == "" {
		dir = "/"
	}
	infos, err := b.client.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		out = append(out, Entry{
			Path:    path.Join(dir, info.Name()),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func (b *WebDAVBackend) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	return b.client.ReadStream(p)
}

func (b *WebDAVBackend) Close() error { return nil }

// FTPConfig carries the connection parameters for an FTP server.
type FTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	BasePath string
}

// FTPBackend serves files from an FTP server via jlaffaye/ftp.
type FTPBackend struct {
	client *ftp.ServerConn
}

// DialFTP connects and logs in, changing into the configured base path.
func DialFTP(cfg FTPConfig) (*FTPBackend, error) {
	if cfg.Port == 0 {
		cfg.Port = 21
	}
	client, err := ftp.Dial(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("filesystem: ftp dial: %w", err)
	}
	if err := client.Login(cfg.Username, cfg.Password); err != nil {
		client.Quit()
		return nil, fmt.Errorf("filesystem: ftp login: %w", err)
	}
	if cfg.BasePath != "" {
		if err := client.ChangeDir(cfg.BasePath); err != nil {
			client.Quit()
			return nil, fmt.Errorf("filesystem: ftp chdir %s: %w", cfg.BasePath, err)
		}
	}
	return &FTPBackend{client: client}, nil
}

func (b *FTPBackend) Kind() string { return "ftp" }

func (b *FTPBackend) List(ctx context.Context, dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := b.client.List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, Entry{
			Path:    path.Join(dir, e.Name),
			IsDir:   e.Type == ftp.EntryTypeFolder,
			Size:    int64(e.Size),
			ModTime: e.Time,
		})
	}
	return out, nil
}

func (b *FTPBackend) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	resp, err := b.client.Retr(p)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *FTPBackend) Close() error {
	return b.client.Quit()
}
