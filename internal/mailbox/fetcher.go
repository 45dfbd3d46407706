// Package mailbox retrieves invoice PDFs attached to incoming mail and
// drops them into the importer's input directory. It is a thin I/O
// collaborator; the pipeline itself never talks to the mail server.
package mailbox

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Config holds IMAP connection settings.
type Config struct {
	Address  string // host:port, IMAPS
	Username string
	Password string
	Folder   string
}

// Fetcher downloads PDF attachments from a mailbox.
type Fetcher struct {
	cfg    Config
	logger *zap.Logger
}

// NewFetcher creates a mailbox fetcher.
func NewFetcher(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
	}
}

// FetchAttachments connects to the mailbox, walks every message in the
// configured folder and saves PDF attachments under downloadDir.
// Attachments whose file already exists are skipped, which keeps repeated
// runs from re-downloading. Returns the number of files written.
func (f *Fetcher) FetchAttachments(downloadDir string) (int, error) {
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	c, err := client.DialTLS(f.cfg.Address, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s: %w", f.cfg.Address, err)
	}
	defer c.Logout()

	if err := c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		return 0, fmt.Errorf("failed to login as %s: %w", f.cfg.Username, err)
	}

	mbox, err := c.Select(f.cfg.Folder, true)
	if err != nil {
		return 0, fmt.Errorf("failed to select folder %s: %w", f.cfg.Folder, err)
	}
	if mbox.Messages == 0 {
		return 0, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(1, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	saved := 0
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		n, err := f.saveAttachments(body, downloadDir)
		if err != nil {
			f.logger.Warn("Failed to read message attachments",
				zap.Uint32("seq", msg.SeqNum),
				zap.Error(err))
			continue
		}
		saved += n
	}

	if err := <-done; err != nil {
		return saved, fmt.Errorf("fetch failed: %w", err)
	}

	f.logger.Info("Mailbox sweep finished",
		zap.Uint32("messages", mbox.Messages),
		zap.Int("attachments_saved", saved))
	return saved, nil
}

// saveAttachments walks the MIME parts of one message and writes its PDF
// attachments to disk.
func (f *Fetcher) saveAttachments(body io.Reader, downloadDir string) (int, error) {
	mr, err := mail.CreateReader(body)
	if err != nil {
		return 0, err
	}

	saved := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return saved, err
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := header.Filename()
		if err != nil || filename == "" {
			continue
		}
		if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
			continue
		}

		filename = SanitizeFilename(filename)
		path := filepath.Join(downloadDir, filename)
		if _, err := os.Stat(path); err == nil {
			f.logger.Debug("Attachment already downloaded, skipping",
				zap.String("file", filename))
			continue
		}

		content, err := io.ReadAll(part.Body)
		if err != nil {
			f.logger.Warn("Failed to read attachment",
				zap.String("file", filename),
				zap.Error(err))
			continue
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			f.logger.Warn("Failed to save attachment",
				zap.String("file", filename),
				zap.Error(err))
			continue
		}

		f.logger.Info("Attachment downloaded", zap.String("file", filename))
		saved++
	}
	return saved, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename strips path separators, shell-unsafe characters and
// line breaks from an attachment filename.
func SanitizeFilename(filename string) string {
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	filename = strings.ReplaceAll(filename, "\r", "")
	filename = strings.ReplaceAll(filename, "\n", "")
	return filename
}
