package dbg

import (
	"fmt"

	"github.com/mudesheng/gafill/utils"
)

// EdgeID and VertexID index the DBG arena, 0 is the null handle.
type EdgeID uint32
type VertexID uint32

// Graph is the read-only view of the assembly graph used by the gap closing code.
// EdgeLength is the number of nucleotides an edge adds to a path; EdgeSeq holds
// EdgeLength+K nucleotides, the last K shared with every successor.
type Graph interface {
	EdgeStart(e EdgeID) VertexID
	EdgeEnd(e EdgeID) VertexID
	EdgeLength(e EdgeID) int
	EdgeSeq(e EdgeID) []byte
	Conjugate(e EdgeID) EdgeID
	K() int
	OutgoingEdges(v VertexID) []EdgeID
	IncomingEdges(v VertexID) []EdgeID
}

type DBGNode struct {
	ID              VertexID
	EdgeIDIncoming  [BaseTypeNum]EdgeID // indexed by the base before the node
	EdgeIDOutcoming [BaseTypeNum]EdgeID // indexed by the base after the node
	Seq             []byte
}

func (n *DBGNode) String() string {
	return fmt.Sprintf("ID:%d EdgeIncoming:%v EdgeOutcoming:%v", n.ID, n.EdgeIDIncoming, n.EdgeIDOutcoming)
}

type DBGEdge struct {
	ID       EdgeID
	StartNID VertexID
	EndNID   VertexID
	Conj     EdgeID
	Name     string
	Ks       []byte
}

func (e *DBGEdge) String() string {
	return fmt.Sprintf("eID:%d StartNID:%d EndNID:%d el:%d Conj:%d", e.ID, e.StartNID, e.EndNID, len(e.Ks), e.Conj)
}

// DBG is an arena of edges and nodes. It is built once and only read afterwards,
// so concurrent traversal needs no locking.
type DBG struct {
	Kmerlen  int
	EdgesArr []DBGEdge
	NodesArr []DBGNode
	NameMap  map[string]EdgeID
	nodeMap  map[string]VertexID
}

func NewDBG(kmerlen int) *DBG {
	return &DBG{
		Kmerlen:  kmerlen,
		EdgesArr: make([]DBGEdge, 1),
		NodesArr: make([]DBGNode, 1),
		NameMap:  make(map[string]EdgeID),
		nodeMap:  make(map[string]VertexID),
	}
}

func (g *DBG) getNode(kmer []byte) VertexID {
	if id, ok := g.nodeMap[utils.Bytes2String(kmer)]; ok {
		return id
	}
	id := VertexID(len(g.NodesArr))
	nd := DBGNode{ID: id, Seq: append([]byte(nil), kmer...)}
	g.NodesArr = append(g.NodesArr, nd)
	g.nodeMap[string(nd.Seq)] = id
	return id
}

func (g *DBG) addOneEdge(name string, seq []byte) (EdgeID, error) {
	k := g.Kmerlen
	eID := EdgeID(len(g.EdgesArr))
	e := DBGEdge{ID: eID, Name: name, Ks: seq}
	e.StartNID = g.getNode(seq[:k])
	e.EndNID = g.getNode(seq[len(seq)-k:])
	out := Base2Bnt[seq[k]]
	in := Base2Bnt[seq[len(seq)-k-1]]
	sn, en := &g.NodesArr[e.StartNID], &g.NodesArr[e.EndNID]
	if sn.EdgeIDOutcoming[out] != 0 {
		return 0, fmt.Errorf("edge %s: node %d already has outgoing edge %d for base %c", name, sn.ID, sn.EdgeIDOutcoming[out], seq[k])
	}
	if en.EdgeIDIncoming[in] != 0 {
		return 0, fmt.Errorf("edge %s: node %d already has incoming edge %d for base %c", name, en.ID, en.EdgeIDIncoming[in], seq[len(seq)-k-1])
	}
	sn.EdgeIDOutcoming[out] = eID
	en.EdgeIDIncoming[in] = eID
	g.EdgesArr = append(g.EdgesArr, e)
	g.NameMap[name] = eID
	return eID, nil
}

// AddEdge stores seq and its reverse complement, returning the forward edge.
// A palindromic sequence is its own conjugate.
func (g *DBG) AddEdge(name string, seq []byte) (EdgeID, error) {
	if len(seq) <= g.Kmerlen {
		return 0, fmt.Errorf("edge %s: length %d must be bigger than K=%d", name, len(seq), g.Kmerlen)
	}
	s := append([]byte(nil), seq...)
	if !NormalizeSeq(s) {
		return 0, fmt.Errorf("edge %s: sequence contains non ACGT base", name)
	}
	if _, ok := g.NameMap[name]; ok {
		return 0, fmt.Errorf("edge %s: duplicate name", name)
	}
	eID, err := g.addOneEdge(name, s)
	if err != nil {
		return 0, err
	}
	rc := GetReverseCompByteArr(s)
	if utils.BytesEqual(rc, s) {
		g.EdgesArr[eID].Conj = eID
		return eID, nil
	}
	cID, err := g.addOneEdge(name+"'", rc)
	if err != nil {
		return 0, err
	}
	g.EdgesArr[eID].Conj = cID
	g.EdgesArr[cID].Conj = eID
	return eID, nil
}

func (g *DBG) EdgeStart(e EdgeID) VertexID { return g.EdgesArr[e].StartNID }
func (g *DBG) EdgeEnd(e EdgeID) VertexID   { return g.EdgesArr[e].EndNID }
func (g *DBG) EdgeLength(e EdgeID) int     { return len(g.EdgesArr[e].Ks) - g.Kmerlen }
func (g *DBG) EdgeSeq(e EdgeID) []byte     { return g.EdgesArr[e].Ks }
func (g *DBG) Conjugate(e EdgeID) EdgeID   { return g.EdgesArr[e].Conj }
func (g *DBG) K() int                      { return g.Kmerlen }

func (g *DBG) OutgoingEdges(v VertexID) []EdgeID {
	return collectEdges(g.NodesArr[v].EdgeIDOutcoming)
}

func (g *DBG) IncomingEdges(v VertexID) []EdgeID {
	return collectEdges(g.NodesArr[v].EdgeIDIncoming)
}

func collectEdges(arr [BaseTypeNum]EdgeID) []EdgeID {
	eIDArr := make([]EdgeID, 0, BaseTypeNum)
	for _, eID := range arr {
		if eID > 0 {
			eIDArr = append(eIDArr, eID)
		}
	}
	return eIDArr
}

func (g *DBG) EdgeName(e EdgeID) string {
	return g.EdgesArr[e].Name
}

// EdgeNum counts edges in the arena, conjugates included.
func (g *DBG) EdgeNum() int {
	return len(g.EdgesArr) - 1
}

// PathLength sums the lengths path contributes, as in GetPathSeqLen.
func PathLength(g Graph, path []EdgeID) (sl int) {
	for _, eID := range path {
		sl += g.EdgeLength(eID)
	}
	return
}

// PathToSeq concatenates the contributed prefix of every edge of path.
func PathToSeq(g Graph, path []EdgeID) []byte {
	seq := make([]byte, 0, PathLength(g, path))
	for _, eID := range path {
		seq = append(seq, g.EdgeSeq(eID)[:g.EdgeLength(eID)]...)
	}
	return seq
}

// IsAdjacent reports whether e2 can follow e1 in a path.
func IsAdjacent(g Graph, e1, e2 EdgeID) bool {
	return g.EdgeEnd(e1) == g.EdgeStart(e2)
}

// ConjugatePath returns the reverse complement path of path.
func ConjugatePath(g Graph, path []EdgeID) []EdgeID {
	cp := make([]EdgeID, len(path))
	for i, eID := range path {
		cp[len(path)-1-i] = g.Conjugate(eID)
	}
	return cp
}
