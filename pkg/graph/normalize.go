package graph

import "slices"

// Normalize returns a copy of g with legacy single-group fields migrated into
// the GroupIDs list. It is meant to run once, when a graph is loaded, so that
// later code can read GroupIDs directly.
//
// Migration keeps GroupIDs order, appends the legacy GroupID when it is not
// already listed, drops empty and repeated IDs, and clears GroupID. A nil
// Nodes or Edges slice becomes an empty one.
func Normalize(g Graph) Graph {
	out := g.Clone()
	for i := range out.Nodes {
		out.Nodes[i].Data.GroupIDs = migrateGroups(out.Nodes[i].Data)
		out.Nodes[i].Data.GroupID = ""
	}
	return out
}

func migrateGroups(d NodeData) []string {
	ids := make([]string, 0, len(d.GroupIDs)+1)
	for _, id := range d.GroupIDs {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if d.GroupID != "" && !slices.Contains(ids, d.GroupID) {
		ids = append(ids, d.GroupID)
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// RemoveGroup returns a copy of g where no node references groupID any more.
// Nodes themselves are never removed.
func RemoveGroup(g Graph, groupID string) Graph {
	out := g.Clone()
	for i := range out.Nodes {
		d := &out.Nodes[i].Data
		d.GroupIDs = slices.DeleteFunc(d.GroupIDs, func(id string) bool { return id == groupID })
		if len(d.GroupIDs) == 0 {
			d.GroupIDs = nil
		}
		if d.GroupID == groupID {
			d.GroupID = ""
		}
	}
	return out
}
