// Package testutil starts throwaway containers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectionTimeout = 3 * time.Second

const (
	pgTestUser     = "intake-test"
	pgTestPassword = "intake-test"
	pgTestDB       = "intake"
)

const (
	mongoTestUser     = "intake-test"
	mongoTestPassword = "intake-test"
)

const redisTestPassword = "intake-test"

// Docker holds docker pool and all containers started through it
type Docker struct {
	pool      *dockertest.Pool
	resources []*dockertest.Resource
}

// NewDocker connects to docker daemon, error means integration tests must be skipped
func NewDocker() (*Docker, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pool - %w", err)
	}

	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to docker - %w", err)
	}

	pool.MaxWait = 2 * time.Minute
	return &Docker{pool: pool}, nil
}

// Postgres starts postgres container and returns connected pool together with dsn
func (d *Docker) Postgres() (*pgxpool.Pool, string, error) {
	res, err := d.run(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14-alpine",
		Env: []string{
			fmt.Sprintf("POSTGRES_USER=%s", pgTestUser),
			fmt.Sprintf("POSTGRES_PASSWORD=%s", pgTestPassword),
			fmt.Sprintf("POSTGRES_DB=%s", pgTestDB),
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgresql - %w", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		pgTestUser, pgTestPassword, res.GetHostPort("5432/tcp"), pgTestDB,
	)

	var pgPool *pgxpool.Pool
	err = d.pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()

		var e error
		pgPool, e = pgxpool.Connect(ctx, dsn)
		if e != nil {
			return e
		}
		return pgPool.Ping(ctx)
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to establish connection to postgresql - %w", err)
	}
	return pgPool, dsn, nil
}

// Mongo starts mongo container and returns connected client
func (d *Docker) Mongo() (*mongo.Client, error) {
	res, err := d.run(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "5",
		Env: []string{
			fmt.Sprintf("MONGO_INITDB_ROOT_USERNAME=%s", mongoTestUser),
			fmt.Sprintf("MONGO_INITDB_ROOT_PASSWORD=%s", mongoTestPassword),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb - %w", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s@%s/?maxPoolSize=20", mongoTestUser, mongoTestPassword, res.GetHostPort("27017/tcp"))

	var client *mongo.Client
	err = d.pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()

		var e error
		client, e = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if e != nil {
			return e
		}
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to establish connection to mongodb - %w", err)
	}
	return client, nil
}

// Redis starts redis container and returns connected client
func (d *Docker) Redis() (*redis.Client, error) {
	res, err := d.run(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
		Cmd:        []string{"redis-server", "--requirepass", redisTestPassword},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis - %w", err)
	}

	var client *redis.Client
	err = d.pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()

		client = redis.NewClient(&redis.Options{
			Addr:     res.GetHostPort("6379/tcp"),
			Password: redisTestPassword,
		})
		return client.Ping(ctx).Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to establish connection to redis - %w", err)
	}
	return client, nil
}

// Purge removes all started containers, errors are collected into the returned slice
func (d *Docker) Purge() []error {
	errs := make([]error, 0)
	for _, res := range d.resources {
		if err := d.pool.Purge(res); err != nil {
			errs = append(errs, fmt.Errorf("failed to purge %s - %w", res.Container.Name, err))
		}
	}
	return errs
}

func (d *Docker) run(opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	res, err := d.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, err
	}
	d.resources = append(d.resources, res)
	return res, nil
}
