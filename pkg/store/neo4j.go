package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStorage implements GraphStorage on top of a Neo4j driver. The driver is
// held for the whole run; a Neo4jStorage is not meant to be shared between
// concurrent traversals.
type Neo4jStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStorageParams contains the connection settings for the graph store.
type NewNeo4jStorageParams struct {
	URI      string
	Username string
	Password string
	Database string

	MaxPoolSize int
	Timeout     time.Duration
}

type dialFunc func(ctx context.Context, uri string) (neo4j.DriverWithContext, error)

// NewNeo4jStorage connects to Neo4j and verifies connectivity. When the
// primary URI uses a certificate-verifying scheme (neo4j+s, bolt+s) and the
// connection fails, it retries exactly once with the self-signed variant
// (neo4j+ssc, bolt+ssc) before giving up with ErrStoreUnavailable.
func NewNeo4jStorage(ctx context.Context, params NewNeo4jStorageParams) (*Neo4jStorage, error) {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 10
	}
	auth := neo4j.BasicAuth(params.Username, params.Password, "")

	dial := func(ctx context.Context, uri string) (neo4j.DriverWithContext, error) {
		driver, err := neo4j.NewDriverWithContext(uri, auth, func(cfg *neo4j.Config) {
			cfg.MaxConnectionPoolSize = maxPool
			cfg.SocketConnectTimeout = timeout
		})
		if err != nil {
			return nil, err
		}
		vCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := driver.VerifyConnectivity(vCtx); err != nil {
			_ = driver.Close(ctx)
			return nil, err
		}
		return driver, nil
	}

	driver, err := connectWithFallback(ctx, params.URI, dial)
	if err != nil {
		return nil, err
	}
	return &Neo4jStorage{driver: driver, database: params.Database}, nil
}

func connectWithFallback(ctx context.Context, uri string, dial dialFunc) (neo4j.DriverWithContext, error) {
	driver, err := dial(ctx, uri)
	if err == nil {
		return driver, nil
	}

	relaxed, ok := relaxedURI(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	logger.Warn("[Store] Connection failed, retrying with relaxed TLS scheme", "err", err)

	driver, fallbackErr := dial(ctx, relaxed)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, fallbackErr)
	}
	return driver, nil
}

// relaxedURI swaps a certificate-verifying scheme for its self-signed variant.
func relaxedURI(uri string) (string, bool) {
	for _, scheme := range []string{"neo4j+s://", "bolt+s://"} {
		if strings.HasPrefix(uri, scheme) {
			return strings.Replace(uri, "+s://", "+ssc://", 1), true
		}
	}
	return "", false
}

// WriteTx runs statements in one explicit write transaction and commits only
// if every statement succeeded.
func (s *Neo4jStorage) WriteTx(ctx context.Context, statements []Statement) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer tx.Close(ctx)

	for i, stmt := range statements {
		res, err := tx.Run(ctx, stmt.Cypher, stmt.Params)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("statement %d: %w", i, err)
		}
		if _, err := res.Consume(ctx); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// Close releases the driver.
func (s *Neo4jStorage) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func (s *Neo4jStorage) runAutoCommit(ctx context.Context, cypher string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}
