package listings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sebeiconnect/marketplace/internal/logger"
	"github.com/sebeiconnect/marketplace/internal/redisx"
)

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Listing, error)
	Get(ctx context.Context, id string) (*Listing, error)
	Search(ctx context.Context, p SearchParams) ([]Listing, int64, error)
	Update(ctx context.Context, id, actorID string, upd Update) (*Listing, error)
	Delete(ctx context.Context, id, actorID string) error
	SellerListings(ctx context.Context, sellerID, status string) ([]SellerListing, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
}

type Store interface {
	Create(ctx context.Context, in CreateInput) (*Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	Search(ctx context.Context, p SearchParams) ([]Listing, int64, error)
	Update(ctx context.Context, id string, upd Update) (*Listing, error)
	SoftDelete(ctx context.Context, id string) error
	ListBySeller(ctx context.Context, sellerID, status string) ([]SellerListing, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
}

type service struct {
	store Store
	cache *redis.Client
	log   logger.Logger
}

func NewService(store Store, cache *redis.Client, log logger.Logger) Service {
	return &service{store: store, cache: cache, log: log}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Listing, error) {
	l, err := s.store.Create(ctx, in)
	if err != nil {
		s.log.Errorf("create listing for seller %s: %v", in.SellerID, err)
		return nil, err
	}
	s.log.Infof("listing %s created by seller %s (%s)", l.ID, l.SellerID, l.CropName)
	return l, nil
}

func (s *service) Get(ctx context.Context, id string) (*Listing, error) {
	key := fmt.Sprintf(redisx.KeyListing, id)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
			var l Listing
			if json.Unmarshal([]byte(raw), &l) == nil {
				return &l, nil
			}
		}
	}

	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if b, err := json.Marshal(l); err == nil {
			_ = s.cache.Set(ctx, key, b, redisx.TTLListing).Err()
		}
	}
	return l, nil
}

func (s *service) Search(ctx context.Context, p SearchParams) ([]Listing, int64, error) {
	return s.store.Search(ctx, p)
}

func (s *service) Update(ctx context.Context, id, actorID string, upd Update) (*Listing, error) {
	if err := s.authorize(ctx, id, actorID); err != nil {
		return nil, err
	}
	l, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return l, nil
}

func (s *service) Delete(ctx context.Context, id, actorID string) error {
	if err := s.authorize(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Infof("listing %s deleted by seller %s", id, actorID)
	return nil
}

func (s *service) SellerListings(ctx context.Context, sellerID, status string) ([]SellerListing, error) {
	if status == "" {
		status = StatusAvailable
	}
	return s.store.ListBySeller(ctx, sellerID, status)
}

func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	return s.store.Categories(ctx)
}

func (s *service) authorize(ctx context.Context, id, actorID string) error {
	l, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.SellerID != actorID {
		return ErrForbidden
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, fmt.Sprintf(redisx.KeyListing, id)).Err()
}
