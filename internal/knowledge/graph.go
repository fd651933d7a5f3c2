package knowledge

import (
	"fmt"
	"sort"
)

// Graph is a read-only projection of the store as nodes and edges, suitable
// for rendering: users link to the cuisines and restaurants they favor, to
// the orders they placed, and orders link to their restaurant and dishes.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type Node struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// Graph builds the projection under the read lock. Node and edge order is
// deterministic so the output is stable across calls.
func (s *Store) Graph() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := Graph{}
	seen := make(map[string]bool)
	addNode := func(id, kind string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		g.Nodes = append(g.Nodes, Node{ID: id, Kind: kind})
	}

	userIDs := make([]string, 0, len(s.users))
	for id := range s.users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	for _, uid := range userIDs {
		profile := s.users[uid]
		addNode(uid, "user")
		for _, cuisine := range profile.PreferredCuisines {
			addNode(cuisine, "cuisine")
			g.Edges = append(g.Edges, Edge{From: uid, To: cuisine, Label: "likes cuisine"})
		}
		for _, rest := range profile.FavoriteRestaurants {
			addNode(rest, "restaurant")
			g.Edges = append(g.Edges, Edge{From: uid, To: rest, Label: "likes restaurant"})
		}
	}

	orderIDs := make([]string, 0, len(s.orders))
	for id := range s.orders {
		orderIDs = append(orderIDs, id)
	}
	sort.Strings(orderIDs)

	for _, oid := range orderIDs {
		order := s.orders[oid]
		addNode(order.UserID, "user")
		addNode(oid, "order")
		g.Edges = append(g.Edges, Edge{From: order.UserID, To: oid, Label: "placed"})

		addNode(order.Restaurant, "restaurant")
		g.Edges = append(g.Edges, Edge{From: oid, To: order.Restaurant, Label: "from"})

		for _, line := range order.Items {
			addNode(line.Name, "dish")
			g.Edges = append(g.Edges, Edge{
				From:  oid,
				To:    line.Name,
				Label: fmt.Sprintf("%dx", line.Quantity),
			})
		}
	}

	return g
}
