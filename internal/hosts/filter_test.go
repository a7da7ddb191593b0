package hosts

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestHostFilterLoading tests loading the active host list from a file
func TestHostFilterLoading(t *testing.T) {
	tests := []struct {
		name          string
		fileContent   string
		expectedHosts []string
		caseSensitive bool
	}{
		{
			name: "valid host list with comments and blanks",
			fileContent: `alice@company.com
bob@company.com

# inactive hosts are commented out
# carol@company.com
dave@example.org
`,
			expectedHosts: []string{
				"alice@company.com",
				"bob@company.com",
				"dave@example.org",
			},
		},
		{
			name:          "empty file",
			fileContent:   ``,
			expectedHosts: []string{},
		},
		{
			name: "only comments and empty lines",
			fileContent: `
# comment one
# comment two

`,
			expectedHosts: []string{},
		},
		{
			name: "case insensitive lowercases entries",
			fileContent: `Alice@Company.com
BOB@COMPANY.COM`,
			expectedHosts: []string{
				"alice@company.com",
				"bob@company.com",
			},
		},
		{
			name: "case sensitive preserves entries",
			fileContent: `Alice@Company.com
BOB@COMPANY.COM`,
			expectedHosts: []string{
				"Alice@Company.com",
				"BOB@COMPANY.COM",
			},
			caseSensitive: true,
		},
		{
			name: "invalid lines are skipped",
			fileContent: `alice@company.com
not-an-email
@missing-local.com
bob@company.com`,
			expectedHosts: []string{
				"alice@company.com",
				"bob@company.com",
			},
		},
		{
			name: "duplicates collapse to one entry",
			fileContent: `alice@company.com
alice@company.com
ALICE@COMPANY.COM`,
			expectedHosts: []string{
				"alice@company.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "active-hosts.txt")
			if err := os.WriteFile(path, []byte(tt.fileContent), 0644); err != nil {
				t.Fatalf("failed to write host list: %v", err)
			}

			filter, err := NewHostFilter(FilterConfig{
				FilePath:      path,
				CaseSensitive: tt.caseSensitive,
			})
			if err != nil {
				t.Fatalf("NewHostFilter failed: %v", err)
			}
			defer filter.Close()

			hosts := filter.ActiveHosts()
			if len(hosts) != len(tt.expectedHosts) {
				t.Fatalf("expected %d hosts, got %d: %v", len(tt.expectedHosts), len(hosts), hosts)
			}
			for i, want := range tt.expectedHosts {
				if hosts[i] != want {
					t.Errorf("host %d: expected %q, got %q", i, want, hosts[i])
				}
			}

			stats := filter.Stats()
			if stats.TotalHosts != len(tt.expectedHosts) {
				t.Errorf("stats.TotalHosts = %d, expected %d", stats.TotalHosts, len(tt.expectedHosts))
			}
		})
	}
}

// TestHostFilterIsActive tests active host membership checks
func TestHostFilterIsActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active-hosts.txt")
	content := `alice@company.com
bob@company.com`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write host list: %v", err)
	}

	filter, err := NewHostFilter(FilterConfig{FilePath: path})
	if err != nil {
		t.Fatalf("NewHostFilter failed: %v", err)
	}
	defer filter.Close()

	tests := []struct {
		email  string
		active bool
	}{
		{"alice@company.com", true},
		{"ALICE@COMPANY.COM", true},
		{"bob@company.com", true},
		{"carol@company.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := filter.IsActive(tt.email); got != tt.active {
			t.Errorf("IsActive(%q) = %v, expected %v", tt.email, got, tt.active)
		}
	}
}

// TestHostFilterDisabled tests that an empty file path disables filtering
func TestHostFilterDisabled(t *testing.T) {
	filter, err := NewHostFilter(FilterConfig{})
	if err != nil {
		t.Fatalf("NewHostFilter failed: %v", err)
	}
	defer filter.Close()

	if !filter.IsActive("anyone@anywhere.com") {
		t.Error("expected all hosts to be active when no file is configured")
	}
	if hosts := filter.ActiveHosts(); len(hosts) != 0 {
		t.Errorf("expected empty host list, got %v", hosts)
	}
	if err := filter.Reload(); err != nil {
		t.Errorf("Reload with no file should be a no-op, got %v", err)
	}
}

// TestHostFilterMissingFile tests that a missing file is an error
func TestHostFilterMissingFile(t *testing.T) {
	_, err := NewHostFilter(FilterConfig{
		FilePath: filepath.Join(t.TempDir(), "does-not-exist.txt"),
	})
	if err == nil {
		t.Fatal("expected error for missing host list file")
	}
}

// TestHostFilterReload tests manual reloading after the file changes
func TestHostFilterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active-hosts.txt")
	if err := os.WriteFile(path, []byte("alice@company.com\n"), 0644); err != nil {
		t.Fatalf("failed to write host list: %v", err)
	}

	filter, err := NewHostFilter(FilterConfig{FilePath: path})
	if err != nil {
		t.Fatalf("NewHostFilter failed: %v", err)
	}
	defer filter.Close()

	if filter.IsActive("bob@company.com") {
		t.Fatal("bob should not be active yet")
	}

	updated := "alice@company.com\nbob@company.com\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to update host list: %v", err)
	}
	if err := filter.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if !filter.IsActive("bob@company.com") {
		t.Error("bob should be active after reload")
	}
}

// TestHostFilterFileWatching tests automatic reload via file watching
func TestHostFilterFileWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active-hosts.txt")
	if err := os.WriteFile(path, []byte("alice@company.com\n"), 0644); err != nil {
		t.Fatalf("failed to write host list: %v", err)
	}

	filter, err := NewHostFilter(FilterConfig{
		FilePath:  path,
		WatchFile: true,
	})
	if err != nil {
		t.Fatalf("NewHostFilter failed: %v", err)
	}
	defer filter.Close()

	updated := "alice@company.com\nbob@company.com\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to update host list: %v", err)
	}

	// Poll for the watcher to pick up the change
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if filter.IsActive("bob@company.com") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("file watcher did not pick up host list change")
}

// TestIsValidEmail tests the email validation helper
func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last@sub.domain.org", true},
		{"user+tag@example.co.uk", true},
		{"", false},
		{"no-at-sign", false},
		{"@no-local.com", false},
		{"user@", false},
		{" user@example.com", false},
	}

	for _, tt := range tests {
		if got := isValidEmail(tt.email); got != tt.valid {
			t.Errorf("isValidEmail(%q) = %v, expected %v", tt.email, got, tt.valid)
		}
	}
}
