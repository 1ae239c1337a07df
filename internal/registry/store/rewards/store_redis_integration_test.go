//go:build integration

package rewards_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"namegate/internal/registry/store/rewards"
	"namegate/pkg/testutil/containers"
)

type RedisRewardsSuite struct {
	suite.Suite
	container *containers.RedisContainer
	store     *rewards.RedisStore
}

func TestRedisRewardsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRewardsSuite))
}

func (s *RedisRewardsSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.container = mgr.GetRedis(s.T())
	s.store = rewards.NewRedisStore(s.container.Client)
}

func (s *RedisRewardsSuite) SetupTest() {
	s.Require().NoError(s.container.FlushAll(context.Background()))
}

func (s *RedisRewardsSuite) TestCreditAccumulates() {
	ctx := context.Background()

	s.Require().NoError(s.store.CreditReward(ctx, "org", 10))
	s.Require().NoError(s.store.CreditReward(ctx, "org", 15))
	s.Require().NoError(s.store.CreditReward(ctx, "test.org", 5))

	ranked, err := s.store.TopRewarded(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(ranked, 2)
	s.Equal(rewards.RankedName{Name: "org", Total: 25}, ranked[0])
	s.Equal(rewards.RankedName{Name: "test.org", Total: 5}, ranked[1])
}

func (s *RedisRewardsSuite) TestTopRewardedHonorsLimit() {
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c", "d"} {
		s.Require().NoError(s.store.CreditReward(ctx, name, uint64(10*(i+1))))
	}

	ranked, err := s.store.TopRewarded(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(ranked, 2)
	s.Equal("d", ranked[0].Name)
	s.Equal("c", ranked[1].Name)

	none, err := s.store.TopRewarded(ctx, 0)
	s.Require().NoError(err)
	s.Empty(none)
}
