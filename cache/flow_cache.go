package cache

import (
	cc "github.com/patrickmn/go-cache"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// FlowCache holds the parsed flow of every running bot so dispatch never
// re-parses the stored JSON per update. Entries live until the bot stops
// or its flow is replaced.
type FlowCache struct {
	cache *cc.Cache
}

func NewFlowCache() *FlowCache {
	return &FlowCache{
		cache: cc.New(cc.NoExpiration, cc.NoExpiration),
	}
}

func (fc *FlowCache) Save(botID string, flow *model.Flow) {
	fc.cache.Set(botID, flow, cc.NoExpiration)
}

func (fc *FlowCache) Get(botID string) (*model.Flow, bool) {
	value, ok := fc.cache.Get(botID)
	if !ok {
		return nil, false
	}
	return value.(*model.Flow), true
}

func (fc *FlowCache) Delete(botID string) {
	fc.cache.Delete(botID)
}
