package dbg

import (
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// GraphvizDBG writes the edges of eIDArr, or the whole graph when eIDArr is
// empty, as a dot digraph. Highlighted edges are drawn red.
func GraphvizDBG(g *DBG, eIDArr []EdgeID, highlight map[EdgeID]bool, w io.Writer) error {
	gv := gographviz.NewGraph()
	if err := gv.SetName("G"); err != nil {
		return err
	}
	if err := gv.SetDir(true); err != nil {
		return err
	}
	if len(eIDArr) == 0 {
		for i := 1; i < len(g.EdgesArr); i++ {
			eIDArr = append(eIDArr, EdgeID(i))
		}
	}
	added := make(map[VertexID]bool)
	addNode := func(nID VertexID) error {
		if added[nID] {
			return nil
		}
		added[nID] = true
		attr := map[string]string{"shape": "point", "color": "Green"}
		return gv.AddNode("G", strconv.Itoa(int(nID)), attr)
	}
	drawn := make(map[EdgeID]bool)
	for _, eID := range eIDArr {
		if drawn[eID] {
			continue
		}
		drawn[eID] = true
		e := &g.EdgesArr[eID]
		if err := addNode(e.StartNID); err != nil {
			return err
		}
		if err := addNode(e.EndNID); err != nil {
			return err
		}
		attr := make(map[string]string)
		attr["color"] = "Blue"
		if highlight[eID] {
			attr["color"] = "Red"
		}
		attr["label"] = "\"" + e.Name + " len:" + strconv.Itoa(g.EdgeLength(eID)) + "\""
		if err := gv.AddEdge(strconv.Itoa(int(e.StartNID)), strconv.Itoa(int(e.EndNID)), true, attr); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, gv.String())
	return err
}

// NeighbourEdges collects edges reachable within depth steps of v in both directions.
func NeighbourEdges(g *DBG, v VertexID, depth int) []EdgeID {
	seen := make(map[EdgeID]bool)
	var eIDArr []EdgeID
	front := []VertexID{v}
	for d := 0; d < depth && len(front) > 0; d++ {
		var next []VertexID
		for _, nID := range front {
			for _, eID := range append(g.OutgoingEdges(nID), g.IncomingEdges(nID)...) {
				if seen[eID] {
					continue
				}
				seen[eID] = true
				eIDArr = append(eIDArr, eID)
				e := &g.EdgesArr[eID]
				if e.StartNID == nID {
					next = append(next, e.EndNID)
				} else {
					next = append(next, e.StartNID)
				}
			}
		}
		front = next
	}
	return eIDArr
}
