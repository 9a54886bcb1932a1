package flowcore_test

import (
	"errors"
	"testing"

	"github.com/flowcore-dev/flowcore"
)

func TestExecuteNameMatchBatch(t *testing.T) {
	g := flowcore.NewGraph()

	source := newStubNode("source", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("text", flowcore.String)})
	source.exec = func(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return map[string]flowcore.DataValue{"text": flowcore.NewString("hello")}, nil
	}

	upper := newStubNode("upper", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("text", flowcore.String)},
		[]flowcore.Port{flowcore.NewPort("result", flowcore.String)})
	upper.exec = func(in map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return map[string]flowcore.DataValue{"result": flowcore.NewString(in["text"].AsString() + "!")}, nil
	}

	_ = g.AddNode(source)
	_ = g.AddNode(upper)

	result := g.ExecuteAndCaptureResults()
	if !result.Success() {
		t.Fatalf("expected success, got error %q on node %q", result.ErrorMessage, result.ErrorNodeID)
	}
	if got := result.NodeResults["upper"]["result"].AsString(); got != "hello!" {
		t.Fatalf("expected upper.result = hello!, got %q", got)
	}
}

func TestExecuteNameMatchDuplicateProducerRejected(t *testing.T) {
	g := flowcore.NewGraph()
	a := newStubNode("a", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	b := newStubNode("b", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	_ = g.AddNode(a)
	_ = g.AddNode(b)

	if err := g.Execute(); err == nil {
		t.Fatal("expected error for two nodes producing the same output port name")
	}
}

func TestExecuteNameMatchUnboundRequiredInput(t *testing.T) {
	g := flowcore.NewGraph()
	n := newStubNode("n", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("text", flowcore.String)}, nil)
	_ = g.AddNode(n)

	if err := g.Execute(); !errors.Is(err, flowcore.ErrUnboundInput) {
		t.Fatalf("expected ErrUnboundInput, got %v", err)
	}
}

func TestExecuteNameMatchInlineValueSatisfiesRequiredInput(t *testing.T) {
	g := flowcore.NewGraph()
	n := newStubNode("n", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("text", flowcore.String)},
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	n.exec = func(in map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return map[string]flowcore.DataValue{"out": in["text"]}, nil
	}
	_ = g.AddNode(n)
	g.SetInlineValue("n", "text", flowcore.NewString("inline"))

	result := g.ExecuteAndCaptureResults()
	if !result.Success() {
		t.Fatalf("expected success, got %q", result.ErrorMessage)
	}
	if got := result.NodeResults["n"]["out"].AsString(); got != "inline" {
		t.Fatalf("expected inline value to flow through, got %q", got)
	}
}

func TestExecuteCycleDetected(t *testing.T) {
	g := flowcore.NewGraph()
	a := newStubNode("a", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("b_out", flowcore.String)},
		[]flowcore.Port{flowcore.NewPort("a_out", flowcore.String)})
	b := newStubNode("b", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("a_out", flowcore.String)},
		[]flowcore.Port{flowcore.NewPort("b_out", flowcore.String)})
	_ = g.AddNode(a)
	_ = g.AddNode(b)

	if err := g.Execute(); !errors.Is(err, flowcore.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestExecuteNodeErrorIsTaggedWithNodeID(t *testing.T) {
	g := flowcore.NewGraph()
	n := newStubNode("boom", flowcore.NodeKindSimple, nil, nil)
	n.exec = func(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return nil, errors.New("kaboom")
	}
	_ = g.AddNode(n)

	result := g.ExecuteAndCaptureResults()
	if result.Success() {
		t.Fatal("expected failure")
	}
	if result.ErrorNodeID != "boom" {
		t.Fatalf("expected ErrorNodeID = boom, got %q (message %q)", result.ErrorNodeID, result.ErrorMessage)
	}
}

func TestExecuteEdgeMode(t *testing.T) {
	g := flowcore.NewGraph()
	a := newStubNode("a", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.Integer)})
	a.exec = func(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return map[string]flowcore.DataValue{"out": flowcore.NewInteger(21)}, nil
	}
	b := newStubNode("b", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("in", flowcore.Integer)},
		[]flowcore.Port{flowcore.NewPort("doubled", flowcore.Integer)})
	b.exec = func(in map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		return map[string]flowcore.DataValue{"doubled": flowcore.NewInteger(in["in"].AsInteger() * 2)}, nil
	}

	_ = g.AddNode(a)
	_ = g.AddNode(b)
	g.SetEdges([]flowcore.Edge{{FromNodeID: "a", FromPort: "out", ToNodeID: "b", ToPort: "in"}})

	result := g.ExecuteAndCaptureResults()
	if !result.Success() {
		t.Fatalf("expected success, got %q", result.ErrorMessage)
	}
	if got := result.NodeResults["b"]["doubled"].AsInteger(); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestExecuteEdgeModeTypeMismatchRejected(t *testing.T) {
	g := flowcore.NewGraph()
	a := newStubNode("a", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	b := newStubNode("b", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("in", flowcore.Integer)}, nil)
	_ = g.AddNode(a)
	_ = g.AddNode(b)
	g.SetEdges([]flowcore.Edge{{FromNodeID: "a", FromPort: "out", ToNodeID: "b", ToPort: "in"}})

	if err := g.Execute(); !errors.Is(err, flowcore.ErrValidation) {
		t.Fatalf("expected ErrValidation for port type mismatch, got %v", err)
	}
}

func TestExecuteEdgeModeFanInRejected(t *testing.T) {
	g := flowcore.NewGraph()
	a := newStubNode("a", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	b := newStubNode("b", flowcore.NodeKindSimple, nil,
		[]flowcore.Port{flowcore.NewPort("out", flowcore.String)})
	c := newStubNode("c", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("in", flowcore.String)}, nil)
	_ = g.AddNode(a)
	_ = g.AddNode(b)
	_ = g.AddNode(c)
	g.SetEdges([]flowcore.Edge{
		{FromNodeID: "a", FromPort: "out", ToNodeID: "c", ToPort: "in"},
		{FromNodeID: "b", FromPort: "out", ToNodeID: "c", ToPort: "in"},
	})

	if err := g.Execute(); !errors.Is(err, flowcore.ErrValidation) {
		t.Fatalf("expected ErrValidation for fan-in, got %v", err)
	}
}

func TestExecuteStreamingEventProducerTicksAndStops(t *testing.T) {
	g := flowcore.NewGraph()

	tick := 0
	producer := newStubNode("timer", flowcore.NodeKindEventProducer, nil,
		[]flowcore.Port{flowcore.NewPort("count", flowcore.Integer)})
	producer.onUpdate = func() (map[string]flowcore.DataValue, error) {
		tick++
		if tick > 3 {
			return nil, nil
		}
		return map[string]flowcore.DataValue{"count": flowcore.NewInteger(int64(tick))}, nil
	}

	var seenCounts []int64
	consumer := newStubNode("consumer", flowcore.NodeKindSimple,
		[]flowcore.Port{flowcore.NewPort("count", flowcore.Integer)}, nil)
	consumer.exec = func(in map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
		seenCounts = append(seenCounts, in["count"].AsInteger())
		return map[string]flowcore.DataValue{}, nil
	}

	_ = g.AddNode(producer)
	_ = g.AddNode(consumer)

	if err := g.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(seenCounts) != 3 || seenCounts[0] != 1 || seenCounts[2] != 3 {
		t.Fatalf("expected consumer to see ticks [1 2 3], got %v", seenCounts)
	}
}

func TestExecuteStreamingStopFlagHaltsLoop(t *testing.T) {
	g := flowcore.NewGraph()
	ticks := 0
	producer := newStubNode("timer", flowcore.NodeKindEventProducer, nil,
		[]flowcore.Port{flowcore.NewPort("count", flowcore.Integer)})
	producer.onUpdate = func() (map[string]flowcore.DataValue, error) {
		ticks++
		if ticks == 2 {
			g.RequestStop()
		}
		if ticks > 5 {
			return nil, nil
		}
		return map[string]flowcore.DataValue{"count": flowcore.NewInteger(int64(ticks))}, nil
	}
	_ = g.AddNode(producer)

	if err := g.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ticks > 3 {
		t.Fatalf("expected loop to stop shortly after RequestStop, ran %d ticks", ticks)
	}
}

func TestExecutionResultRunIDIsUnique(t *testing.T) {
	g := flowcore.NewGraph()
	first := g.ExecuteAndCaptureResults()
	second := g.ExecuteAndCaptureResults()
	if first.RunID == "" || first.RunID == second.RunID {
		t.Fatalf("expected distinct non-empty run ids, got %q and %q", first.RunID, second.RunID)
	}
}

func TestExecuteOrderIsDeterministic(t *testing.T) {
	build := func() *flowcore.Graph {
		g := flowcore.NewGraph()
		for _, id := range []string{"c", "a", "b"} {
			id := id
			n := newStubNode(id, flowcore.NodeKindSimple, nil,
				[]flowcore.Port{flowcore.NewPort(id+"_out", flowcore.String)})
			n.exec = func(map[string]flowcore.DataValue) (map[string]flowcore.DataValue, error) {
				return map[string]flowcore.DataValue{id + "_out": flowcore.NewString(id)}, nil
			}
			_ = g.AddNode(n)
		}
		return g
	}

	var orderA, orderB []string
	g1 := build()
	g1.SetObserver(func(nodeID string, _, _ map[string]flowcore.DataValue) {
		orderA = append(orderA, nodeID)
	})
	g2 := build()
	g2.SetObserver(func(nodeID string, _, _ map[string]flowcore.DataValue) {
		orderB = append(orderB, nodeID)
	})

	if err := g1.Execute(); err != nil {
		t.Fatalf("execute g1: %v", err)
	}
	if err := g2.Execute(); err != nil {
		t.Fatalf("execute g2: %v", err)
	}
	if len(orderA) != len(orderB) {
		t.Fatalf("order length mismatch: %v vs %v", orderA, orderB)
	}
	for i := range orderA {
		if orderA[i] != orderB[i] {
			t.Fatalf("expected identical order across runs, got %v vs %v", orderA, orderB)
		}
	}
}
