//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager hands out one container per backend for the whole test binary.
type Manager struct {
	redisOnce    sync.Once
	postgresOnce sync.Once
	mongoOnce    sync.Once

	redis    *RedisContainer
	postgres *PostgresContainer
	mongo    *MongoContainer
}

var shared Manager

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return &shared
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() { m.redis = NewRedisContainer(t) })
	if m.redis == nil {
		t.Fatal("redis container failed to start earlier")
	}
	return m.redis
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.postgresOnce.Do(func() { m.postgres = NewPostgresContainer(t) })
	if m.postgres == nil {
		t.Fatal("postgres container failed to start earlier")
	}
	return m.postgres
}

func (m *Manager) GetMongo(t *testing.T) *MongoContainer {
	t.Helper()
	m.mongoOnce.Do(func() { m.mongo = NewMongoContainer(t) })
	if m.mongo == nil {
		t.Fatal("mongo container failed to start earlier")
	}
	return m.mongo
}
