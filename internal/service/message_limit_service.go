// FILE: internal/service/message_limit_service.go
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const countCacheTTL = 10 * time.Second

type IMessageLimitService interface {
	// Check computes the quota state for an identity (registered user uuid
	// string or anonymous cookie id) from the persisted message count.
	Check(ctx context.Context, identity string) (*dto.MessageLimitResponse, error)
	// Invalidate drops the cached count after a message is persisted.
	Invalidate(ctx context.Context, identity string)
}

type messageLimitService struct {
	uowFactory unitofwork.RepositoryFactory
	// redisClient is nil when no REDIS_URL is configured; localCache then
	// serves as the in-process fallback.
	redisClient *redis.Client
	localCache  *cache.Cache
}

func NewMessageLimitService(uowFactory unitofwork.RepositoryFactory, redisClient *redis.Client) IMessageLimitService {
	return &messageLimitService{
		uowFactory:  uowFactory,
		redisClient: redisClient,
		localCache:  cache.New(countCacheTTL, time.Minute),
	}
}

func countCacheKey(identity string) string {
	return "msgcount:" + identity
}

func (s *messageLimitService) Check(ctx context.Context, identity string) (*dto.MessageLimitResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// A registered identity is the user's uuid in string form.
	var user *entity.User
	if userId, err := uuid.Parse(identity); err == nil {
		user, err = uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			return nil, err
		}
	}

	role := entity.UserRoleAnonymous
	var limit *int
	requiresVerification := false
	blocked := false

	if user != nil {
		role = user.Role
		limit = user.EffectiveMessageLimit()
		blocked = user.IsBlocked
		if user.Provider == string(entity.AuthProviderEmail) && !user.IsEmailVerified {
			requiresVerification = true
		}
	} else {
		limit = entity.DefaultLimitForRole(entity.UserRoleAnonymous)
	}

	used, err := s.countUserMessages(ctx, uow, identity, user)
	if err != nil {
		return nil, err
	}

	res := &dto.MessageLimitResponse{
		Role:                 string(role),
		Limit:                limit,
		Used:                 int(used),
		IsUnlimited:          limit == nil,
		RequiresVerification: requiresVerification,
	}

	switch {
	case blocked:
		zero := 0
		res.Limit = &zero
		res.Remaining = &zero
		res.IsUnlimited = false
		res.CanSend = false
	case requiresVerification:
		res.CanSend = false
		if limit != nil {
			remaining := max(0, *limit-int(used))
			res.Remaining = &remaining
		}
	case limit == nil:
		res.CanSend = true
	default:
		remaining := max(0, *limit-int(used))
		res.Remaining = &remaining
		res.CanSend = remaining > 0
	}

	return res, nil
}

func (s *messageLimitService) countUserMessages(ctx context.Context, uow unitofwork.UnitOfWork, identity string, user *entity.User) (int64, error) {
	key := countCacheKey(identity)

	if s.redisClient != nil {
		if val, err := s.redisClient.Get(ctx, key).Result(); err == nil {
			if cached, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
				return cached, nil
			}
		}
	} else if val, found := s.localCache.Get(key); found {
		return val.(int64), nil
	}

	var authUserId *uuid.UUID
	if user != nil {
		authUserId = &user.Id
	}
	count, err := uow.ChatMessageRepository().CountUserMessagesForIdentity(ctx, identity, authUserId)
	if err != nil {
		return 0, err
	}

	if s.redisClient != nil {
		if err := s.redisClient.Set(ctx, key, fmt.Sprintf("%d", count), countCacheTTL).Err(); err != nil {
			// Cache failure is not a quota failure.
			s.localCache.Set(key, count, countCacheTTL)
		}
	} else {
		s.localCache.Set(key, count, countCacheTTL)
	}

	return count, nil
}

func (s *messageLimitService) Invalidate(ctx context.Context, identity string) {
	key := countCacheKey(identity)
	if s.redisClient != nil {
		_ = s.redisClient.Del(ctx, key).Err()
	}
	s.localCache.Delete(key)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
