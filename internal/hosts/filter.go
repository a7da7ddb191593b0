// Package hosts provides active host list filtering for zoom-resume
package hosts

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HostFilter defines the interface for active host list operations
type HostFilter interface {
	IsActive(email string) bool
	ActiveHosts() []string
	Stats() FilterStats
	Reload() error
	Close() error
}

// FilterConfig holds configuration for the host filter
type FilterConfig struct {
	FilePath      string // Path to the active hosts file (empty disables filtering)
	CaseSensitive bool   // Whether email comparison should be case sensitive
	WatchFile     bool   // Whether to watch file for changes during long runs
}

// FilterStats provides statistics about the active host list
type FilterStats struct {
	TotalHosts  int       // Number of active hosts
	LastUpdated time.Time // When the list was last loaded
	FilePath    string    // Path to the host list file
	IsWatching  bool      // Whether file watching is enabled
}

// hostFilterImpl implements the HostFilter interface
type hostFilterImpl struct {
	config    FilterConfig
	hosts     map[string]bool
	hostList  []string
	mutex     sync.RWMutex
	watcher   *fsnotify.Watcher
	stopWatch chan struct{}
	stats     FilterStats
}

// Email validation regex (basic validation) - allows underscores in domain
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]{2,}$`)

// NewHostFilter creates a new active host filter. An empty file path
// disables filtering entirely: every host is considered active.
func NewHostFilter(config FilterConfig) (HostFilter, error) {
	filter := &hostFilterImpl{
		config:    config,
		hosts:     make(map[string]bool),
		hostList:  make([]string, 0),
		stopWatch: make(chan struct{}),
		stats: FilterStats{
			FilePath:   config.FilePath,
			IsWatching: config.WatchFile,
		},
	}

	if config.FilePath == "" {
		return filter, nil
	}

	if err := filter.loadHostList(); err != nil {
		return nil, fmt.Errorf("failed to load initial host list: %w", err)
	}

	if config.WatchFile {
		if err := filter.setupFileWatcher(); err != nil {
			return nil, fmt.Errorf("failed to setup file watcher: %w", err)
		}
	}

	return filter, nil
}

// IsActive checks whether a host email is in the active host list
func (f *hostFilterImpl) IsActive(email string) bool {
	if f.config.FilePath == "" {
		return true
	}

	checkEmail := email
	if !f.config.CaseSensitive {
		checkEmail = strings.ToLower(email)
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.hosts[checkEmail]
}

// ActiveHosts returns a copy of the active host list
func (f *hostFilterImpl) ActiveHosts() []string {
	if f.config.FilePath == "" {
		return []string{}
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	result := make([]string, len(f.hostList))
	copy(result, f.hostList)
	return result
}

// Stats returns statistics about the active host list
func (f *hostFilterImpl) Stats() FilterStats {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.stats
}

// Reload reloads the host list from the file
func (f *hostFilterImpl) Reload() error {
	if f.config.FilePath == "" {
		return nil
	}
	return f.loadHostList()
}

// Close closes the filter and cleans up resources
func (f *hostFilterImpl) Close() error {
	if f.config.WatchFile && f.watcher != nil {
		close(f.stopWatch)
		return f.watcher.Close()
	}
	return nil
}

// loadHostList loads the host list from the configured file. Lines are
// email addresses; empty lines and lines starting with '#' are skipped,
// as are lines that do not look like email addresses.
func (f *hostFilterImpl) loadHostList() error {
	file, err := os.Open(f.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open host list file: %w", err)
	}
	defer file.Close()

	newHosts := make(map[string]bool)
	newHostList := make([]string, 0)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isValidEmail(line) {
			continue
		}

		email := line
		if !f.config.CaseSensitive {
			email = strings.ToLower(email)
		}

		if !newHosts[email] {
			newHosts[email] = true
			newHostList = append(newHostList, email)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading host list file: %w", err)
	}

	f.mutex.Lock()
	f.hosts = newHosts
	f.hostList = newHostList
	f.stats.TotalHosts = len(newHostList)
	f.stats.LastUpdated = time.Now()
	f.mutex.Unlock()

	return nil
}

// setupFileWatcher sets up file system watching for the host list file
func (f *hostFilterImpl) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(f.config.FilePath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch file: %w", err)
	}

	f.watcher = watcher
	go f.watchFileChanges()

	return nil
}

// watchFileChanges handles file system events for the host list file
func (f *hostFilterImpl) watchFileChanges() {
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				// Small delay to ensure file write is complete
				time.Sleep(10 * time.Millisecond)

				if err := f.loadHostList(); err != nil {
					continue
				}
			}

		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}

		case <-f.stopWatch:
			return
		}
	}
}

// isValidEmail performs basic email validation
func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	if strings.TrimSpace(email) != email {
		return false
	}
	if len(email) > 320 {
		return false
	}
	return emailRegex.MatchString(email)
}
