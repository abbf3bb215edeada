package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type PublisherTestSuite struct {
	suite.Suite
	mr        *miniredis.Miniredis
	client    *redis.Client
	publisher *Publisher
	ctx       context.Context
}

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}

func (s *PublisherTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.publisher, err = New(s.client, "test:population")
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *PublisherTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func (s *PublisherTestSuite) TestPopularOrdersByPlayers() {
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 1, 3))
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 2, 10))
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 3, 0))
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 4, 5))

	top, err := s.publisher.Popular(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal([]RoomPopulation{{RoomID: 2, Players: 10}, {RoomID: 4, Players: 5}}, top)

	all, err := s.publisher.Popular(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(all, 3, "empty rooms are not listed")
}

func (s *PublisherTestSuite) TestUpdateAndRemove() {
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 1, 3))
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 1, 7))
	score, err := s.mr.ZScore("test:population", "1")
	s.Require().NoError(err)
	s.Equal(7.0, score)

	s.Require().NoError(s.publisher.Remove(s.ctx, 1))
	top, err := s.publisher.Popular(s.ctx, 5)
	s.Require().NoError(err)
	s.Empty(top)
}

func (s *PublisherTestSuite) TestReset() {
	s.Require().NoError(s.publisher.SetPopulation(s.ctx, 1, 3))
	s.Require().NoError(s.publisher.Reset(s.ctx))
	s.False(s.mr.Exists("test:population"))
}

func (s *PublisherTestSuite) TestRedisErrors() {
	s.mr.SetError("ERR injected failure")
	s.Error(s.publisher.SetPopulation(s.ctx, 1, 1))
	_, err := s.publisher.Popular(s.ctx, 1)
	s.Error(err)
}

func (s *PublisherTestSuite) TestNewValidates() {
	_, err := New(nil, "k")
	s.Error(err)
	_, err = New(s.client, "")
	s.Error(err)
}
