// Package hierarchy derives the leadership forest from the leader_id edges
// stored on members. Nothing here touches the database; callers load the
// members and hand them over.
package hierarchy

import "github.com/dalemusser/templehub/internal/domain/models"

// Anomaly kinds.
const (
	AnomalyCycle       = "cycle"
	AnomalyDuplicateID = "duplicate_id"
)

// Forest is the derived organization chart.
type Forest struct {
	// Admins are listed flat, outside every tree.
	Admins []models.MemberSummary `json:"admins"`
	// Trees holds one entry per root leader, in input order.
	Trees []*Node `json:"trees"`
	// Unassigned holds members and volunteers whose leader_id does not
	// resolve to a leader.
	Unassigned []models.MemberSummary `json:"unassigned"`
	Anomalies  []Anomaly              `json:"anomalies,omitempty"`
}

// Node is a leader and everything directly under them.
type Node struct {
	Leader  models.MemberSummary `json:"leader"`
	Leaders []*Node              `json:"leaders"`
	Members *MembersGroup        `json:"members,omitempty"`
}

// MembersGroup collapses the non-leader subordinates of one leader.
type MembersGroup struct {
	Count   int                    `json:"count"`
	Members []models.MemberSummary `json:"members"`
}

// Anomaly is a data-integrity problem found while building the forest.
// For cycles, MemberIDs lists the cycle in parent order starting at the
// member that was promoted to root.
type Anomaly struct {
	Kind      string  `json:"kind"`
	MemberIDs []int64 `json:"member_ids"`
}

// Count returns the number of members placed in the forest: admins, every
// leader node, every grouped subordinate and every unassigned member.
func (f Forest) Count() int {
	n := len(f.Admins) + len(f.Unassigned)
	var walk func(*Node)
	walk = func(nd *Node) {
		n++
		if nd.Members != nil {
			n += nd.Members.Count
		}
		for _, c := range nd.Leaders {
			walk(c)
		}
	}
	for _, t := range f.Trees {
		walk(t)
	}
	return n
}

// Build derives the forest. Sibling order follows input order. A leader is
// a root when its leader_id is empty, unknown, self-referencing, points to a
// non-leader, or closes a cycle; in the last case the earliest member of the
// cycle (by input order) becomes the root and the cycle is reported.
func Build(members []models.Member) Forest {
	f := Forest{
		Admins:     []models.MemberSummary{},
		Trees:      []*Node{},
		Unassigned: []models.MemberSummary{},
	}

	// Arena of unique members in input order.
	seen := make(map[int64]bool, len(members))
	arena := make([]models.Member, 0, len(members))
	for _, m := range members {
		if seen[m.ID] {
			f.Anomalies = append(f.Anomalies, Anomaly{Kind: AnomalyDuplicateID, MemberIDs: []int64{m.ID}})
			continue
		}
		seen[m.ID] = true
		arena = append(arena, m)
	}

	index := make(map[int64]int, len(arena))
	for i, m := range arena {
		index[m.ID] = i
	}

	// leaderOf[i] is the arena index of i's leader when that leader exists
	// and has the leader role, otherwise -1.
	leaderOf := make([]int, len(arena))
	for i, m := range arena {
		leaderOf[i] = -1
		if m.LeaderID == nil {
			continue
		}
		if j, ok := index[*m.LeaderID]; ok && arena[j].RoleID == models.RoleLeader {
			leaderOf[i] = j
		}
	}

	breakCycles(arena, leaderOf, &f)

	nodes := make(map[int]*Node)
	for i, m := range arena {
		if m.RoleID == models.RoleLeader {
			nodes[i] = &Node{Leader: m.Summary(), Leaders: []*Node{}}
		}
	}

	for i, m := range arena {
		switch {
		case m.RoleID == models.RoleAdmin:
			f.Admins = append(f.Admins, m.Summary())
		case m.RoleID == models.RoleLeader:
			if p := leaderOf[i]; p >= 0 {
				nodes[p].Leaders = append(nodes[p].Leaders, nodes[i])
			} else {
				f.Trees = append(f.Trees, nodes[i])
			}
		default:
			p := leaderOf[i]
			if p < 0 {
				f.Unassigned = append(f.Unassigned, m.Summary())
				continue
			}
			parent := nodes[p]
			if parent.Members == nil {
				parent.Members = &MembersGroup{Members: []models.MemberSummary{}}
			}
			parent.Members.Members = append(parent.Members.Members, m.Summary())
			parent.Members.Count++
		}
	}
	return f
}

// breakCycles walks the leader-to-leader links and cuts one edge per cycle.
func breakCycles(arena []models.Member, leaderOf []int, f *Forest) {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, len(arena))

	for start := range arena {
		if arena[start].RoleID != models.RoleLeader || state[start] != unvisited {
			continue
		}
		var path []int
		cur := start
		for cur >= 0 && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = leaderOf[cur]
		}
		if cur >= 0 && state[cur] == onPath {
			// path[k:] is the cycle.
			k := 0
			for path[k] != cur {
				k++
			}
			cycle := path[k:]
			root := cycle[0]
			for _, i := range cycle {
				if i < root {
					root = i
				}
			}
			leaderOf[root] = -1

			ids := make([]int64, 0, len(cycle))
			pos := 0
			for cycle[pos] != root {
				pos++
			}
			for n := 0; n < len(cycle); n++ {
				ids = append(ids, arena[cycle[(pos+n)%len(cycle)]].ID)
			}
			f.Anomalies = append(f.Anomalies, Anomaly{Kind: AnomalyCycle, MemberIDs: ids})
		}
		for _, i := range path {
			state[i] = done
		}
	}
}
