package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"go.uber.org/zap"
)

var runPattern = regexp.MustCompile(`^run_(\d+)$`)

// SessionManager owns the output folders of a live session:
//
//	{dataOutputPath}/{YYYY-MM-DD}/run_N/
//
// Dates are taken in the session's location so folders roll over together with the
// daily trade counter.
type SessionManager struct {
	dataOutputPath string
	location       *time.Location
	runID          string
	runNumber      int
	sessionStart   time.Time
	currentDate    string
	currentRunPath string
	mu             sync.Mutex
	logger         *logger.Logger
}

// NewSessionManager creates a new SessionManager. A nil location means UTC.
func NewSessionManager(log *logger.Logger, location *time.Location) *SessionManager {
	if location == nil {
		location = time.UTC
	}

	return &SessionManager{
		location: location,
		logger:   log,
	}
}

// Initialize picks the next free run number for the date of start and creates its folder.
func (s *SessionManager) Initialize(dataOutputPath string, start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataOutputPath = dataOutputPath
	s.sessionStart = start
	s.currentDate = s.dateOf(start)

	runNumber, err := s.nextRunNumber(s.currentDate)
	if err != nil {
		return err
	}

	s.runNumber = runNumber
	s.runID = fmt.Sprintf("run_%d", runNumber)

	if err := s.createRunFolder(); err != nil {
		return err
	}

	s.logger.Info("Session initialized",
		zap.String("run_id", s.runID),
		zap.String("date", s.currentDate),
		zap.String("path", s.currentRunPath),
	)

	return nil
}

func (s *SessionManager) dateOf(t time.Time) string {
	return t.In(s.location).Format(time.DateOnly)
}

func (s *SessionManager) nextRunNumber(date string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataOutputPath, date))
	if os.IsNotExist(err) {
		return 1, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read date directory: %w", err)
	}

	highest := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		matches := runPattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		if n, err := strconv.Atoi(matches[1]); err == nil && n > highest {
			highest = n
		}
	}

	return highest + 1, nil
}

func (s *SessionManager) createRunFolder() error {
	s.currentRunPath = filepath.Join(s.dataOutputPath, s.currentDate, s.runID)

	if err := os.MkdirAll(s.currentRunPath, 0755); err != nil {
		return fmt.Errorf("failed to create run folder: %w", err)
	}

	return nil
}

// HandleDateBoundary moves the session into a folder for the date of t, keeping the run
// number. It reports whether the date changed.
func (s *SessionManager) HandleDateBoundary(t time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.dateOf(t)
	if date == s.currentDate {
		return false, nil
	}

	oldDate := s.currentDate
	s.currentDate = date

	if err := s.createRunFolder(); err != nil {
		return false, err
	}

	s.logger.Info("Date boundary crossed",
		zap.String("old_date", oldDate),
		zap.String("new_date", date),
		zap.String("run_id", s.runID),
		zap.String("path", s.currentRunPath),
	)

	return true, nil
}

// GetCurrentRunPath returns the current run folder path.
func (s *SessionManager) GetCurrentRunPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentRunPath
}

// GetRunID returns the session run ID, e.g. "run_1".
func (s *SessionManager) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}

func (s *SessionManager) GetSessionStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionStart
}

// GetCurrentDate returns the current date in YYYY-MM-DD format.
func (s *SessionManager) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

// GetFilePath returns the full path for a file in the current run folder.
func (s *SessionManager) GetFilePath(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filepath.Join(s.currentRunPath, filename)
}
