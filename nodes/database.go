package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/flowcore-dev/flowcore"
	"github.com/redis/go-redis/v9"
)

// pctEncode percent-encodes everything except RFC 3986 unreserved
// characters (ALPHA / DIGIT / '-' / '.' / '_' / '~'), the way the
// original implementation's config::pct_encode embeds credentials in a
// generated connection URL without relying on a general-purpose query
// escaper that encodes a different character set.
func pctEncode(input string) string {
	out := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		b := input[i]
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') ||
			b == '-' || b == '.' || b == '_' || b == '~' {
			out = append(out, b)
			continue
		}
		out = append(out, []byte(fmt.Sprintf("%%%02X", b))...)
	}
	return string(out)
}

// RedisConfigNode builds a Redis connection URL from its input ports
// and, unlike the original implementation's config-only RedisNode,
// actually dials and PINGs the server in Execute before emitting the
// ref — a config that can't reach its database fails when this node
// runs rather than silently later, inside whichever node eventually
// uses redis_ref.
type RedisConfigNode struct {
	flowcore.BaseNode
}

func NewRedisConfigNode(id, name string) *RedisConfigNode {
	return &RedisConfigNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *RedisConfigNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("redis_host", flowcore.String),
		flowcore.NewPort("redis_port", flowcore.Integer),
		flowcore.NewPort("redis_db", flowcore.Integer).Optional(),
		flowcore.NewPort("redis_password", flowcore.Password).Optional(),
	}
}

func (n *RedisConfigNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("redis_ref", flowcore.RedisRef)}
}

func (n *RedisConfigNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	host := inputs["redis_host"].AsString()
	port := inputs["redis_port"].AsInteger()
	db := 0
	if v, ok := inputs["redis_db"]; ok {
		db = int(v.AsInteger())
	}
	password := ""
	if v, ok := inputs["redis_password"]; ok {
		password = v.AsString()
	}

	url := fmt.Sprintf("redis://%s:%d/%d", host, port, db)
	if password != "" {
		url = fmt.Sprintf("redis://:%s@%s:%d/%d", pctEncode(password), host, port, db)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s:%d: %w", host, port, err)
	}

	ref := flowcore.NewRedisRef(flowcore.OpaqueRef{
		Kind:   "redis_ref",
		Fields: map[string]any{"host": host, "port": port, "db": db},
	})
	return map[string]flowcore.DataValue{"redis_ref": ref}, nil
}

// SQLConfigNode builds a SQL connection URL from its input ports. It
// stays config-only like the original implementation's MySqlNode: no
// driver in this module's dependency stack targets the wire protocol a
// generic "sql_dialect" config could name, so validating connectivity
// here would require picking one database vendor's driver for a node
// that is meant to describe several. Persistence nodes that do need a
// live connection use flowcore/store's sqlite-backed implementation
// instead.
type SQLConfigNode struct {
	flowcore.BaseNode
}

func NewSQLConfigNode(id, name string) *SQLConfigNode {
	return &SQLConfigNode{BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindSimple)}
}

func (n *SQLConfigNode) InputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("sql_host", flowcore.String),
		flowcore.NewPort("sql_port", flowcore.Integer),
		flowcore.NewPort("sql_user", flowcore.String),
		flowcore.NewPort("sql_password", flowcore.Password),
		flowcore.NewPort("sql_database", flowcore.String),
	}
}

func (n *SQLConfigNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{flowcore.NewPort("sql_ref", flowcore.MySqlRef)}
}

func (n *SQLConfigNode) Execute(inputs map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
	host := inputs["sql_host"].AsString()
	port := inputs["sql_port"].AsInteger()
	user := inputs["sql_user"].AsString()
	password := inputs["sql_password"].AsString()
	database := inputs["sql_database"].AsString()

	url := fmt.Sprintf("sql://%s@%s:%d/%s", user, host, port, database)
	if password != "" {
		url = fmt.Sprintf("sql://%s:%s@%s:%d/%s", user, pctEncode(password), host, port, database)
	}

	ref := flowcore.NewMySqlRef(flowcore.OpaqueRef{
		Kind:   "sql_ref",
		Fields: map[string]any{"host": host, "port": port, "database": database, "url": url},
	})
	return map[string]flowcore.DataValue{"sql_ref": ref}, nil
}
