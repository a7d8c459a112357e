package graph

import "go.uber.org/zap"

const subscriberBuffer = 256

// Subscribe returns a channel of changes and a function that unsubscribes.
// Delivery never blocks a writer: when a subscriber falls behind, changes are
// dropped for it and a single Replaced change is queued in their place so the
// subscriber knows to resynchronize from the graph.
func (g *Graph) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)
	g.subMu.Lock()
	id := g.next
	g.next++
	g.subs[id] = ch
	g.subMu.Unlock()

	return ch, func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
}

func (g *Graph) publish(c Change) {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	for id, ch := range g.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		g.logger.Warn("subscriber lagging, requesting resync", zap.Int("subscriber", id))
		drain(ch)
		ch <- Change{Replaced: true}
	}
}

func drain(ch chan Change) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
