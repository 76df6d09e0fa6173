package transcripts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

const separator = "--------------------"

var errUnparsableDate = errors.New("unparsable date")

// WriteExport renders entries in export order. System messages are omitted.
func WriteExport(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		fmt.Fprintf(bw, "%s\n", separator)
		fmt.Fprintf(bw, "Interview %d\n", i+1)
		fmt.Fprintf(bw, "Username: %s\n", orNA(e.Record.Username))
		fmt.Fprintf(bw, "Date: %s\n", orNA(e.Record.StartTimeUTC))
		fmt.Fprintf(bw, "Duration: %.2f minutes\n", e.Duration.Minutes)
		fmt.Fprintf(bw, "%s\n\n", separator)

		for _, m := range e.Record.Transcript {
			if m.Role == models.RoleSystem {
				continue
			}
			role := m.Role
			if role == "" {
				role = "unknown_role"
			}
			fmt.Fprintf(bw, "[%s]\n%s\n\n", strings.ToUpper(role), strings.TrimSpace(m.Content))
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteExportFile overwrites path with the rendered export.
func WriteExportFile(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteExport(f, entries); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
