package flowcore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// edgeSource identifies the (node, port) an edge-mode input is wired from.
type edgeSource struct {
	nodeID string
	port   string
}

// Execute validates the graph, derives a deterministic execution order,
// and drives every node to completion (spec.md §4.4-4.6). It returns the
// first node-reported or validation error encountered.
func (g *Graph) Execute() error {
	_, err := g.run()
	return err
}

// ExecuteAndCaptureResults runs the graph and always returns a populated
// ExecutionResult: on success the per-node map holds every batch-prefix
// and non-streaming node's combined inputs/outputs; on failure it holds
// only the nodes completed before the error, plus ErrorNodeID/ErrorMessage.
//
// Streaming-mode tick executions are not retained in NodeResults (they
// would grow without bound across an open-ended stream); they are only
// visible through the graph's Observer, matching the original
// implementation's capture behavior.
func (g *Graph) ExecuteAndCaptureResults() *ExecutionResult {
	result, _ := g.run()
	return result
}

func (g *Graph) run() (*ExecutionResult, error) {
	result := newExecutionResult(uuid.NewString())

	var err error
	if len(g.edges) > 0 {
		err = g.runEdgeMode(result)
	} else {
		err = g.runNameMatchMode(result)
	}
	if err != nil {
		result.recordError(err)
		if errors.Is(err, ErrCycleDetected) {
			g.log().Warn("graph execution aborted: cycle detected", "run_id", result.RunID)
		} else {
			g.log().Error("graph execution failed", "run_id", result.RunID, "node_id", result.ErrorNodeID, "error", err)
		}
	}
	return result, err
}

// kahnOrder runs Kahn's algorithm over nodeIDs with the supplied
// dependency/dependent adjacency, breaking ties by sorting the ready set
// by id at every step — this is what gives two runs of the same graph
// identical execution orders (spec.md §8 property 4).
func kahnOrder(nodeIDs []string, dependencies, dependents map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(nodeIDs))
	for _, id := range nodeIDs {
		inDegree[id] = len(dependencies[id])
	}

	ready := make([]string, 0)
	for _, id := range nodeIDs {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	ordered := make([]string, 0, len(nodeIDs))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, id)

		if next := dependents[id]; len(next) > 0 {
			for _, nid := range next {
				inDegree[nid]--
				if inDegree[nid] == 0 {
					ready = append(ready, nid)
				}
			}
			sort.Strings(ready)
		}
	}

	if len(ordered) != len(nodeIDs) {
		return nil, ErrCycleDetected
	}
	return ordered, nil
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

func eventProducerSet(g *Graph) map[string]bool {
	set := make(map[string]bool)
	for id, n := range g.nodes {
		if n.Kind() == NodeKindEventProducer {
			set[id] = true
		}
	}
	return set
}

// forwardClosure computes reach(r): all nodes reachable from r via the
// dependents adjacency (spec.md GLOSSARY, §4.5 step 1).
func forwardClosure(root string, dependents map[string][]string) map[string]bool {
	visited := make(map[string]bool)
	stack := []string{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, dependents[cur]...)
	}
	return visited
}

func eventRoots(eventSet map[string]bool, dependencies map[string][]string, connected map[string]bool) []string {
	roots := make([]string, 0)
	for id := range eventSet {
		if connected != nil && !connected[id] {
			continue
		}
		hasEventDep := false
		for _, dep := range dependencies[id] {
			if eventSet[dep] {
				hasEventDep = true
				break
			}
		}
		if !hasEventDep {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// ---------------------------------------------------------------------
// Name-match mode (spec.md §4.3, §4.4 "Name-match mode")
// ---------------------------------------------------------------------

func (g *Graph) buildNameMatchWiring() (producers map[string]string, dependencies, dependents map[string][]string, err error) {
	producers = make(map[string]string)
	for _, id := range g.order {
		for _, port := range g.nodes[id].OutputPorts() {
			if existing, dup := producers[port.Name]; dup {
				return nil, nil, nil, fmt.Errorf("%w: output port %q is produced by both %q and %q",
					ErrValidation, port.Name, existing, id)
			}
			producers[port.Name] = id
		}
	}

	dependencies = make(map[string][]string)
	dependents = make(map[string][]string)
	for _, id := range g.order {
		for _, port := range g.nodes[id].InputPorts() {
			producer, ok := producers[port.Name]
			if ok {
				if producer != id {
					dependencies[id] = append(dependencies[id], producer)
					dependents[producer] = append(dependents[producer], id)
				}
				continue
			}
			if port.Required {
				if _, hasInline := g.inlineValues[id][port.Name]; !hasInline {
					return nil, nil, nil, fmt.Errorf("%w: required input %q for node %q is not bound",
						ErrUnboundInput, port.Name, id)
				}
			}
		}
	}
	return producers, dependencies, dependents, nil
}

func collectInputsFlat(n Node, pool map[string]DataValue, nodeID string, inline map[string]DataValue) (map[string]DataValue, error) {
	inputs := make(map[string]DataValue)
	for _, port := range n.InputPorts() {
		if v, ok := pool[port.Name]; ok {
			inputs[port.Name] = v
			continue
		}
		if v, ok := inline[port.Name]; ok {
			inputs[port.Name] = v
			continue
		}
		if port.Required {
			return nil, fmt.Errorf("%w: required input %q for node %q is missing", ErrUnboundInput, port.Name, nodeID)
		}
	}
	if err := ValidateInputs(n, inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

func (g *Graph) runNameMatchMode(result *ExecutionResult) error {
	if len(g.nodes) == 0 {
		return nil
	}

	_, dependencies, dependents, err := g.buildNameMatchWiring()
	if err != nil {
		return err
	}

	ordered, err := kahnOrder(g.order, dependencies, dependents)
	if err != nil {
		return err
	}

	eventSet := eventProducerSet(g)
	if len(eventSet) == 0 {
		pool := make(map[string]DataValue)
		for _, id := range ordered {
			n := g.nodes[id]
			inputs, err := collectInputsFlat(n, pool, id, g.inlineValues[id])
			if err != nil {
				return err
			}
			outputs, err := n.Execute(inputs)
			if err != nil {
				return wrapNodeError(id, err)
			}
			if err := ValidateOutputs(n, outputs); err != nil {
				return wrapNodeError(id, err)
			}
			g.notify(id, inputs, outputs)
			result.NodeResults[id] = mergeMaps(inputs, outputs)
			for k, v := range outputs {
				if _, exists := pool[k]; exists {
					return fmt.Errorf("%w: output key %q from node %q conflicts with existing data", ErrValidation, k, id)
				}
				pool[k] = v
			}
		}
		return nil
	}

	reachableFromEvent := make(map[string]bool)
	reachableMap := make(map[string]map[string]bool)
	for id := range eventSet {
		r := forwardClosure(id, dependents)
		reachableMap[id] = r
		for k := range r {
			reachableFromEvent[k] = true
		}
	}

	basePool := make(map[string]DataValue)
	for _, id := range ordered {
		if reachableFromEvent[id] {
			continue
		}
		n := g.nodes[id]
		inputs, err := collectInputsFlat(n, basePool, id, g.inlineValues[id])
		if err != nil {
			return err
		}
		outputs, err := n.Execute(inputs)
		if err != nil {
			return wrapNodeError(id, err)
		}
		if err := ValidateOutputs(n, outputs); err != nil {
			return wrapNodeError(id, err)
		}
		g.notify(id, inputs, outputs)
		result.NodeResults[id] = mergeMaps(inputs, outputs)
		for k, v := range outputs {
			if _, exists := basePool[k]; exists {
				return fmt.Errorf("%w: output key %q from node %q conflicts with existing data", ErrValidation, k, id)
			}
			basePool[k] = v
		}
	}

	for _, rootID := range eventRoots(eventSet, dependencies, nil) {
		if err := g.runEventProducerFlat(rootID, basePool, reachableMap, eventSet, ordered); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) runEventProducerFlat(nodeID string, basePool map[string]DataValue, reachableMap map[string]map[string]bool, eventSet map[string]bool, ordered []string) error {
	reachable := reachableMap[nodeID]
	n := g.nodes[nodeID]

	inputs, err := collectInputsFlat(n, basePool, nodeID, g.inlineValues[nodeID])
	if err != nil {
		return err
	}
	if err := n.OnStart(inputs); err != nil {
		return wrapNodeError(nodeID, err)
	}

	for {
		if g.Stopped() {
			break
		}

		outputs, err := n.OnUpdate()
		if err != nil {
			return wrapNodeError(nodeID, err)
		}
		if outputs == nil {
			break
		}
		if err := ValidateOutputs(n, outputs); err != nil {
			return wrapNodeError(nodeID, err)
		}
		g.notify(nodeID, map[string]DataValue{}, outputs)

		eventPool := make(map[string]DataValue, len(basePool)+len(outputs))
		for k, v := range basePool {
			eventPool[k] = v
		}
		for k, v := range outputs {
			eventPool[k] = v
		}

		skipped := make(map[string]bool)
		for _, id := range ordered {
			if id == nodeID || skipped[id] || !reachable[id] {
				continue
			}

			if eventSet[id] {
				if err := g.runEventProducerFlat(id, eventPool, reachableMap, eventSet, ordered); err != nil {
					return err
				}
				for k := range reachableMap[id] {
					skipped[k] = true
				}
				continue
			}

			childNode := g.nodes[id]
			childInputs, err := collectInputsFlat(childNode, eventPool, id, g.inlineValues[id])
			if err != nil {
				return err
			}
			childOutputs, err := childNode.Execute(childInputs)
			if err != nil {
				return wrapNodeError(id, err)
			}
			if err := ValidateOutputs(childNode, childOutputs); err != nil {
				return wrapNodeError(id, err)
			}
			g.notify(id, childInputs, childOutputs)
			for k, v := range childOutputs {
				if _, exists := eventPool[k]; exists {
					return fmt.Errorf("%w: output key %q from node %q conflicts with existing data", ErrValidation, k, id)
				}
				eventPool[k] = v
			}
		}
	}

	if err := n.OnCleanup(); err != nil {
		return wrapNodeError(nodeID, err)
	}
	return nil
}

// ---------------------------------------------------------------------
// Edge mode (spec.md §4.3 "edges are authoritative")
// ---------------------------------------------------------------------

func (g *Graph) buildEdgeWiring() (connected map[string]bool, dependencies, dependents map[string][]string, sources map[string]map[string]edgeSource, err error) {
	connected = make(map[string]bool)
	dependencies = make(map[string][]string)
	dependents = make(map[string][]string)
	sources = make(map[string]map[string]edgeSource)

	for _, e := range g.edges {
		fromNode, ok := g.nodes[e.FromNodeID]
		if !ok {
			return nil, nil, nil, nil, fmt.Errorf("%w: node %q not found for edge", ErrValidation, e.FromNodeID)
		}
		toNode, ok := g.nodes[e.ToNodeID]
		if !ok {
			return nil, nil, nil, nil, fmt.Errorf("%w: node %q not found for edge", ErrValidation, e.ToNodeID)
		}
		fromPort, ok := findPort(fromNode.OutputPorts(), e.FromPort)
		if !ok {
			return nil, nil, nil, nil, fmt.Errorf("%w: output port %q not found on node %q", ErrValidation, e.FromPort, e.FromNodeID)
		}
		toPort, ok := findPort(toNode.InputPorts(), e.ToPort)
		if !ok {
			return nil, nil, nil, nil, fmt.Errorf("%w: input port %q not found on node %q", ErrValidation, e.ToPort, e.ToNodeID)
		}
		if !fromPort.DataType.Equal(toPort.DataType) {
			return nil, nil, nil, nil, fmt.Errorf("%w: port type mismatch for edge %s.%s -> %s.%s",
				ErrValidation, e.FromNodeID, e.FromPort, e.ToNodeID, e.ToPort)
		}

		connected[e.FromNodeID] = true
		connected[e.ToNodeID] = true
		dependents[e.FromNodeID] = append(dependents[e.FromNodeID], e.ToNodeID)
		dependencies[e.ToNodeID] = append(dependencies[e.ToNodeID], e.FromNodeID)

		if sources[e.ToNodeID] == nil {
			sources[e.ToNodeID] = make(map[string]edgeSource)
		}
		if _, dup := sources[e.ToNodeID][e.ToPort]; dup {
			return nil, nil, nil, nil, fmt.Errorf("%w: input port %q on node %q has multiple connections",
				ErrValidation, e.ToPort, e.ToNodeID)
		}
		sources[e.ToNodeID][e.ToPort] = edgeSource{nodeID: e.FromNodeID, port: e.FromPort}
	}

	return connected, dependencies, dependents, sources, nil
}

func collectInputsEdge(n Node, pool map[string]map[string]DataValue, sources map[string]edgeSource, nodeID string, inline map[string]DataValue) (map[string]DataValue, error) {
	inputs := make(map[string]DataValue)
	for _, port := range n.InputPorts() {
		if src, ok := sources[port.Name]; ok {
			if outs, ok := pool[src.nodeID]; ok {
				if v, ok := outs[src.port]; ok {
					inputs[port.Name] = v
					continue
				}
			}
		}
		if v, ok := inline[port.Name]; ok {
			inputs[port.Name] = v
			continue
		}
		if port.Required {
			return nil, fmt.Errorf("%w: required input %q for node %q is missing", ErrUnboundInput, port.Name, nodeID)
		}
	}
	if err := ValidateInputs(n, inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

func insertOutputs(pool map[string]map[string]DataValue, nodeID string, outputs map[string]DataValue) {
	if pool[nodeID] == nil {
		pool[nodeID] = make(map[string]DataValue)
	}
	for k, v := range outputs {
		pool[nodeID][k] = v
	}
}

func (g *Graph) runEdgeMode(result *ExecutionResult) error {
	connected, dependencies, dependents, sources, err := g.buildEdgeWiring()
	if err != nil {
		return err
	}
	if len(connected) == 0 {
		return nil
	}

	ordered, err := kahnOrder(g.order, dependencies, dependents)
	if err != nil {
		return err
	}

	for id := range connected {
		n := g.nodes[id]
		for _, port := range n.InputPorts() {
			if !port.Required {
				continue
			}
			_, hasEdge := sources[id][port.Name]
			_, hasInline := g.inlineValues[id][port.Name]
			if !hasEdge && !hasInline {
				return fmt.Errorf("%w: required input %q for node %q is not bound", ErrUnboundInput, port.Name, id)
			}
		}
	}

	eventSet := eventProducerSet(g)
	if len(eventSet) == 0 {
		pool := make(map[string]map[string]DataValue)
		for _, id := range ordered {
			if !connected[id] {
				continue
			}
			n := g.nodes[id]
			inputs, err := collectInputsEdge(n, pool, sources[id], id, g.inlineValues[id])
			if err != nil {
				return err
			}
			outputs, err := n.Execute(inputs)
			if err != nil {
				return wrapNodeError(id, err)
			}
			if err := ValidateOutputs(n, outputs); err != nil {
				return wrapNodeError(id, err)
			}
			g.notify(id, inputs, outputs)
			result.NodeResults[id] = mergeMaps(inputs, outputs)
			insertOutputs(pool, id, outputs)
		}
		return nil
	}

	reachableFromEvent := make(map[string]bool)
	reachableMap := make(map[string]map[string]bool)
	for id := range eventSet {
		r := forwardClosure(id, dependents)
		reachableMap[id] = r
		for k := range r {
			reachableFromEvent[k] = true
		}
	}

	basePool := make(map[string]map[string]DataValue)
	for _, id := range ordered {
		if !connected[id] || reachableFromEvent[id] {
			continue
		}
		n := g.nodes[id]
		inputs, err := collectInputsEdge(n, basePool, sources[id], id, g.inlineValues[id])
		if err != nil {
			return err
		}
		outputs, err := n.Execute(inputs)
		if err != nil {
			return wrapNodeError(id, err)
		}
		if err := ValidateOutputs(n, outputs); err != nil {
			return wrapNodeError(id, err)
		}
		g.notify(id, inputs, outputs)
		result.NodeResults[id] = mergeMaps(inputs, outputs)
		insertOutputs(basePool, id, outputs)
	}

	for _, rootID := range eventRoots(eventSet, dependencies, connected) {
		if err := g.runEventProducerEdge(rootID, basePool, reachableMap, eventSet, ordered, connected, sources); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) runEventProducerEdge(nodeID string, basePool map[string]map[string]DataValue, reachableMap map[string]map[string]bool, eventSet map[string]bool, ordered []string, connected map[string]bool, sources map[string]map[string]edgeSource) error {
	reachable := reachableMap[nodeID]
	n := g.nodes[nodeID]

	inputs, err := collectInputsEdge(n, basePool, sources[nodeID], nodeID, g.inlineValues[nodeID])
	if err != nil {
		return err
	}
	if err := n.OnStart(inputs); err != nil {
		return wrapNodeError(nodeID, err)
	}

	for {
		if g.Stopped() {
			break
		}

		outputs, err := n.OnUpdate()
		if err != nil {
			return wrapNodeError(nodeID, err)
		}
		if outputs == nil {
			break
		}
		if err := ValidateOutputs(n, outputs); err != nil {
			return wrapNodeError(nodeID, err)
		}
		g.notify(nodeID, map[string]DataValue{}, outputs)

		eventPool := make(map[string]map[string]DataValue, len(basePool)+1)
		for k, v := range basePool {
			copied := make(map[string]DataValue, len(v))
			for pk, pv := range v {
				copied[pk] = pv
			}
			eventPool[k] = copied
		}
		insertOutputs(eventPool, nodeID, outputs)

		skipped := make(map[string]bool)
		for _, id := range ordered {
			if id == nodeID || skipped[id] || !reachable[id] || !connected[id] {
				continue
			}

			if eventSet[id] {
				if err := g.runEventProducerEdge(id, eventPool, reachableMap, eventSet, ordered, connected, sources); err != nil {
					return err
				}
				for k := range reachableMap[id] {
					skipped[k] = true
				}
				continue
			}

			childNode := g.nodes[id]
			childInputs, err := collectInputsEdge(childNode, eventPool, sources[id], id, g.inlineValues[id])
			if err != nil {
				return err
			}
			childOutputs, err := childNode.Execute(childInputs)
			if err != nil {
				return wrapNodeError(id, err)
			}
			if err := ValidateOutputs(childNode, childOutputs); err != nil {
				return wrapNodeError(id, err)
			}
			g.notify(id, childInputs, childOutputs)
			insertOutputs(eventPool, id, childOutputs)
		}
	}

	if err := n.OnCleanup(); err != nil {
		return wrapNodeError(nodeID, err)
	}
	return nil
}

func mergeMaps(a, b map[string]DataValue) map[string]DataValue {
	out := make(map[string]DataValue, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
