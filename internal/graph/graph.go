// Package graph answers sibling lookups from the catalog graph kept in Neo4j.
//
// Games and concepts are nodes labelled Game and Concept keyed by their
// catalog id. SHARES_CONTENT links entries that are the same content on a
// different platform or region; SAME_FAMILY links entries of one franchise
// family. Both relationships are treated as undirected.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"platChallengesAPI/internal/logger"
)

const (
	relContent = "SHARES_CONTENT"
	relFamily  = "SAME_FAMILY"
)

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

type Options struct {
	URI      string
	User     string
	Password string
	Database string
	MaxPool  int
	Timeout  time.Duration
}

// New connects to Neo4j and verifies connectivity. An empty URI returns a nil
// client and no error.
func New(ctx context.Context, opts Options, log *logger.Logger) (*Client, error) {
	if opts.URI == "" {
		return nil, nil
	}
	if log == nil {
		return nil, fmt.Errorf("graph: logger required")
	}
	if opts.User == "" {
		opts.User = "neo4j"
	}
	if opts.MaxPool <= 0 {
		opts.MaxPool = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""), func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = opts.MaxPool
		cfg.SocketConnectTimeout = opts.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(verifyCtx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}

	return &Client{
		Driver:   driver,
		Database: opts.Database,
		log:      log.With("client", "Neo4jGraph"),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	return c.Driver.Close(ctx)
}

func (c *Client) GameContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return c.siblings(ctx, "Game", relContent, ids)
}

func (c *Client) GameFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return c.siblings(ctx, "Game", relFamily, ids)
}

func (c *Client) ConceptContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return c.siblings(ctx, "Concept", relContent, ids)
}

func (c *Client) ConceptFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return c.siblings(ctx, "Concept", relFamily, ids)
}

// siblingQuery builds the one-hop lookup. label and rel only ever come from
// the constants above.
func siblingQuery(label, rel string) string {
	return fmt.Sprintf(`
MATCH (src:%[1]s)-[:%[2]s]-(sib:%[1]s)
WHERE src.id IN $ids
RETURN DISTINCT sib.id AS id
`, label, rel)
}

func (c *Client) siblings(ctx context.Context, label, rel string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	result, err := neo4j.ExecuteQuery(ctx, c.Driver, siblingQuery(label, rel),
		map[string]any{"ids": ids},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.Database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s %s siblings: %w", label, rel, err)
	}

	out := make([]int64, 0, len(result.Records))
	for _, record := range result.Records {
		id, _, err := neo4j.GetRecordValue[int64](record, "id")
		if err != nil {
			c.log.Warn("skipping sibling without integer id", "label", label, "rel", rel, "error", err)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
