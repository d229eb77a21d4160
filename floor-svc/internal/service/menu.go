package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CachedMenu answers price lookups from the cache and falls back to the menu
// repository it is handed. Cache failures only cost a database round trip.
type CachedMenu struct {
	cache PriceCache
	log   logrus.FieldLogger
}

func NewCachedMenu(cache PriceCache, log logrus.FieldLogger) *CachedMenu {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedMenu{cache: cache, log: log}
}

func (m *CachedMenu) PriceOf(ctx context.Context, menus MenuRepository, menuID int) (decimal.Decimal, error) {
	if m.cache != nil {
		price, ok, err := m.cache.GetPrice(ctx, menuID)
		if err != nil {
			m.log.WithFields(logrus.Fields{"menu_id": menuID, "error": err}).Warn("price cache read failed")
		} else if ok {
			return price, nil
		}
	}

	price, err := menus.MenuPrice(ctx, menuID)
	if err != nil {
		return decimal.Zero, err
	}

	if m.cache != nil {
		if err := m.cache.SetPrice(ctx, menuID, price); err != nil {
			m.log.WithFields(logrus.Fields{"menu_id": menuID, "error": err}).Warn("price cache write failed")
		}
	}
	return price, nil
}
