package nodes

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowcore-dev/flowcore"
	"github.com/robfig/cron/v3"
)

var standardCronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}
	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// TimerProducerNode is an EventProducer that emits one tick per firing
// of a standard five-field UTC cron expression, generalizing the
// original implementation's bot-adapter event loop to any scheduled
// trigger instead of one inbound-message transport.
type TimerProducerNode struct {
	flowcore.BaseNode
	schedule cron.Schedule
	cronExpr string
}

// NewTimerProducerNode creates a TimerProducerNode firing on cronExpr
// (standard 5-field, UTC only). It returns an error immediately if the
// expression doesn't parse, so a misconfigured graph fails at build
// time rather than on the first tick.
func NewTimerProducerNode(id, name, cronExpr string) (*TimerProducerNode, error) {
	schedule, err := parseCronExpressionUTC(cronExpr)
	if err != nil {
		return nil, err
	}
	return &TimerProducerNode{
		BaseNode: flowcore.NewBaseNode(id, name, flowcore.NodeKindEventProducer),
		schedule: schedule,
		cronExpr: cronExpr,
	}, nil
}

func (n *TimerProducerNode) InputPorts() []flowcore.Port { return nil }

func (n *TimerProducerNode) OutputPorts() []flowcore.Port {
	return []flowcore.Port{
		flowcore.NewPort("fired_at", flowcore.String).WithDescription("RFC3339 timestamp of this tick"),
	}
}

func (n *TimerProducerNode) OnStart(map[string]flowcore.DataValue) error { return nil }

// OnUpdate blocks until the schedule's next firing time, then emits it.
// It never returns (nil, nil): a cron schedule has no natural end, so
// the stream only stops via the graph's cooperative stop flag, observed
// at the top of the next scheduler iteration.
func (n *TimerProducerNode) OnUpdate() (map[string]flowcore.DataValue, error) {
	now := time.Now().UTC()
	next := n.schedule.Next(now)
	time.Sleep(time.Until(next))
	return map[string]flowcore.DataValue{
		"fired_at": flowcore.NewString(next.Format(time.RFC3339)),
	}, nil
}

func (n *TimerProducerNode) OnCleanup() error { return nil }
