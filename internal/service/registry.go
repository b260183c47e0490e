package service

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/domain"
	"github.com/embedkit/embedkit/internal/logger"
	redisstore "github.com/embedkit/embedkit/internal/store/redis"
)

// Registry bundles the four widget services behind one handle. Everything
// downstream of the store client is plain construction; the registry exists
// so transport and scheduler wiring take one dependency, not four.
type Registry struct {
	Counter *Counter
	Like    *Like
	Ranking *Ranking
	BBS     *BBS
}

// Config aggregates the per-widget service configs.
type Config struct {
	Counter CounterConfig
	Like    LikeConfig
	Ranking RankingConfig
	BBS     BBSConfig
}

// NewRegistry wires every service against a shared Redis client. Primitive
// repos are keyspace-agnostic and shared; each service gets its own key
// builder and entity repo.
func NewRegistry(client *goredis.Client, cfg Config, log logger.Logger) *Registry {
	strings := redisstore.NewStringRepo(client)
	counters := redisstore.NewCounterRepo(client)
	markers := redisstore.NewMarkerRepo(client)
	lists := redisstore.NewListRepo(client)
	sets := redisstore.NewSortedSetRepo(client)
	scanner := redisstore.NewScanner(client)

	counterBase := NewBase[domain.Counter](
		redisstore.NewKeys(domain.KindCounter),
		redisstore.NewEntityRepo[domain.Counter](client),
		strings, log,
	)
	likeBase := NewBase[domain.Like](
		redisstore.NewKeys(domain.KindLike),
		redisstore.NewEntityRepo[domain.Like](client),
		strings, log,
	)
	rankingBase := NewBase[domain.Ranking](
		redisstore.NewKeys(domain.KindRanking),
		redisstore.NewEntityRepo[domain.Ranking](client),
		strings, log,
	)
	bbsBase := NewBase[domain.BBS](
		redisstore.NewKeys(domain.KindBBS),
		redisstore.NewEntityRepo[domain.BBS](client),
		strings, log,
	)

	return &Registry{
		Counter: NewCounter(counterBase, counters, markers, scanner, cfg.Counter, log),
		Like:    NewLike(likeBase, counters, markers, scanner, cfg.Like, log),
		Ranking: NewRanking(rankingBase, sets, markers, scanner, cfg.Ranking, log),
		BBS:     NewBBS(bbsBase, counters, lists, markers, scanner, cfg.BBS, log),
	}
}
