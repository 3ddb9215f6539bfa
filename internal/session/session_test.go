package session

import (
	"context"
	"sync"
	"testing"

	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/rxtech-lab/argo-sync/mocks"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type GateTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	source *mocks.MockUserDataSource
	gate   *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

func (s *GateTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockUserDataSource(s.ctrl)
	s.gate = NewGate(s.source, logger.NewNopLogger())
}

func (s *GateTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *GateTestSuite) TestCheckAccepted() {
	s.source.EXPECT().UserData(gomock.Any()).Return(types.UserData{ID: "u1", Plan: "pro"}, nil) //nolint:exhaustruct

	session, err := s.gate.Check(context.Background())
	s.Require().NoError(err)
	s.Equal("u1", session.User.ID)
	s.Empty(session.Notices)
}

func (s *GateTestSuite) TestCheckUnauthorized() {
	s.source.EXPECT().UserData(gomock.Any()).
		Return(types.UserData{}, errors.New(errors.ErrCodeUnauthorized, "status 401")) //nolint:exhaustruct

	session, err := s.gate.Check(context.Background())
	s.Nil(session)
	s.True(errors.HasCode(err, errors.ErrCodeUnauthorized))
}

func (s *GateTestSuite) TestCheckFetchFailed() {
	s.source.EXPECT().UserData(gomock.Any()).
		Return(types.UserData{}, errors.New(errors.ErrCodeTransport, "connection refused")) //nolint:exhaustruct

	_, err := s.gate.Check(context.Background())
	s.True(errors.HasCode(err, errors.ErrCodeFetchFailed))
}

func (s *GateTestSuite) TestCheckVersionSkew() {
	previous := version.Version
	version.Version = "1.2.0"
	defer func() { version.Version = previous }()

	tests := []struct {
		name       string
		apiVersion string
		skewed     bool
	}{
		{name: "same minor", apiVersion: "1.2.9", skewed: false},
		{name: "minor mismatch", apiVersion: "1.3.0", skewed: true},
		{name: "major mismatch", apiVersion: "v2.0.0", skewed: true},
		{name: "unreported", apiVersion: "", skewed: false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.source.EXPECT().UserData(gomock.Any()).
				Return(types.UserData{ID: "u1", APIVersion: tt.apiVersion}, nil) //nolint:exhaustruct

			session, err := s.gate.Check(context.Background())
			s.Require().NoError(err)

			if tt.skewed {
				s.Require().Len(session.Notices, 1)
				s.Equal(types.NotifyVersionSkew, session.Notices[0].Code)
				s.Equal(types.NotificationWarning, session.Notices[0].Level)
			} else {
				s.Empty(session.Notices)
			}
		})
	}
}

func TestMarkersShowOnce(t *testing.T) {
	markers := NewMarkers()

	if !markers.ShowOnce(MarkerRiskDisclosure) {
		t.Fatal("first call must show the disclosure")
	}

	if markers.ShowOnce(MarkerRiskDisclosure) {
		t.Fatal("second call must not show the disclosure")
	}

	if !markers.Seen(MarkerRiskDisclosure) || markers.Seen(MarkerWelcome) {
		t.Fatal("unexpected Seen result")
	}

	markers.Reset()

	if !markers.ShowOnce(MarkerRiskDisclosure) {
		t.Fatal("reset must forget markers")
	}
}

func TestMarkersConcurrent(t *testing.T) {
	markers := NewMarkers()

	var wg sync.WaitGroup
	var mu sync.Mutex
	shown := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if markers.ShowOnce(MarkerWelcome) {
				mu.Lock()
				shown++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if shown != 1 {
		t.Fatalf("expected exactly one show, got %d", shown)
	}
}
