package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type IDTestSuite struct {
	suite.Suite
}

func TestIDSuite(t *testing.T) {
	suite.Run(t, new(IDTestSuite))
}

func (suite *IDTestSuite) TestIDsSortByCreation() {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := New(at)
	second := New(at)
	later := New(at.Add(time.Second))

	suite.Len(first, 26)
	suite.Less(first, second)
	suite.Less(second, later)
}

func (suite *IDTestSuite) TestTimeRoundTrip() {
	at := time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)

	got, err := Time(New(at))
	suite.Require().NoError(err)
	suite.True(at.Equal(got))
}

func (suite *IDTestSuite) TestTimeRejectsGarbage() {
	_, err := Time("not-a-ulid")
	suite.Error(err)
}
