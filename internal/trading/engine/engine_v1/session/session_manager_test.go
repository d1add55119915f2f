package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/stretchr/testify/suite"
)

type SessionManagerTestSuite struct {
	suite.Suite
	tempDir string
	logger  *logger.Logger
	start   time.Time
}

func (s *SessionManagerTestSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
	s.start = time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)
}

func (s *SessionManagerTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func TestSessionManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerTestSuite))
}

func (s *SessionManagerTestSuite) TestInitialize_FirstRun() {
	sm := NewSessionManager(s.logger, nil)

	s.Require().NoError(sm.Initialize(s.tempDir, s.start))

	s.Equal("run_1", sm.GetRunID())
	s.Equal("2024-03-01", sm.GetCurrentDate())
	s.Equal(filepath.Join(s.tempDir, "2024-03-01", "run_1"), sm.GetCurrentRunPath())
	s.DirExists(sm.GetCurrentRunPath())
	s.Equal(s.start, sm.GetSessionStart())
}

func (s *SessionManagerTestSuite) TestInitialize_SkipsExistingRuns() {
	for _, name := range []string{"run_1", "run_3", "notes", "run_x"} {
		s.Require().NoError(os.MkdirAll(filepath.Join(s.tempDir, "2024-03-01", name), 0755))
	}

	sm := NewSessionManager(s.logger, nil)
	s.Require().NoError(sm.Initialize(s.tempDir, s.start))

	s.Equal("run_4", sm.GetRunID())
}

func (s *SessionManagerTestSuite) TestDateUsesLocation() {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	s.Require().NoError(err)

	sm := NewSessionManager(s.logger, tokyo)
	s.Require().NoError(sm.Initialize(s.tempDir, s.start))

	// 22:30 UTC is already the next morning in Tokyo
	s.Equal("2024-03-02", sm.GetCurrentDate())
}

func (s *SessionManagerTestSuite) TestHandleDateBoundary() {
	sm := NewSessionManager(s.logger, nil)
	s.Require().NoError(sm.Initialize(s.tempDir, s.start))

	changed, err := sm.HandleDateBoundary(s.start.Add(time.Hour))
	s.Require().NoError(err)
	s.False(changed)

	changed, err = sm.HandleDateBoundary(s.start.Add(2 * time.Hour))
	s.Require().NoError(err)
	s.True(changed)

	s.Equal("run_1", sm.GetRunID())
	s.Equal(filepath.Join(s.tempDir, "2024-03-02", "run_1"), sm.GetCurrentRunPath())
	s.DirExists(sm.GetCurrentRunPath())
	s.Equal(filepath.Join(s.tempDir, "2024-03-02", "run_1", "stats.yaml"), sm.GetFilePath("stats.yaml"))
}
