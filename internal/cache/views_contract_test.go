package cache_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"mugs/internal/cache"
	id "mugs/pkg/domain"
)

// ViewsSuite is the behaviour shared by the view caches.
type ViewsSuite struct {
	suite.Suite
	open  func() cache.Views
	ctx   context.Context
	views cache.Views
}

func (s *ViewsSuite) SetupTest() {
	s.ctx = context.Background()
	s.views = s.open()
}

func (s *ViewsSuite) TestRoundTrip() {
	docID := id.NewID()
	key := cache.Key("Student", docID, 1)

	_, ok, err := s.views.Get(s.ctx, key)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.views.Set(s.ctx, key, map[string]any{"firstName": "Sam"}, time.Minute))
	view, ok, err := s.views.Get(s.ctx, key)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Sam", view["firstName"])
}

func (s *ViewsSuite) TestInvalidateDropsEveryDepth() {
	docID, other := id.NewID(), id.NewID()
	for depth := 0; depth <= 1; depth++ {
		s.Require().NoError(s.views.Set(s.ctx, cache.Key("Admin", docID, depth), map[string]any{"d": "x"}, time.Minute))
	}
	s.Require().NoError(s.views.Set(s.ctx, cache.Key("Admin", other, 0), map[string]any{"d": "y"}, time.Minute))

	s.Require().NoError(s.views.Invalidate(s.ctx, "Admin", docID))

	for depth := 0; depth <= 1; depth++ {
		_, ok, err := s.views.Get(s.ctx, cache.Key("Admin", docID, depth))
		s.Require().NoError(err)
		s.False(ok, "depth %d", depth)
	}
	_, ok, err := s.views.Get(s.ctx, cache.Key("Admin", other, 0))
	s.Require().NoError(err)
	s.True(ok)
}
